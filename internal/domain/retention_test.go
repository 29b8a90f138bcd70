package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRetention(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawRetentionPolicy
		scope   RetentionScope
		want    RetentionPolicy
		wantErr bool
	}{
		{
			name:  "retain",
			raw:   RawRetentionPolicy{Typ: "retain"},
			scope: RetentionScopeTeam,
			want:  RetentionPolicy{Type: RetentionRetain},
		},
		{
			name:  "expire with age",
			raw:   RawRetentionPolicy{Typ: "expire", AgeSeconds: 3600},
			scope: RetentionScopeTeam,
			want:  RetentionPolicy{Type: RetentionExpire, Age: time.Hour},
		},
		{
			name:  "explode with age",
			raw:   RawRetentionPolicy{Typ: "explode", AgeSeconds: 60},
			scope: RetentionScopeChannel,
			want:  RetentionPolicy{Type: RetentionExplode, Age: time.Minute},
		},
		{
			name:    "expire without age",
			raw:     RawRetentionPolicy{Typ: "expire"},
			scope:   RetentionScopeTeam,
			wantErr: true,
		},
		{
			name:  "inherit at channel scope",
			raw:   RawRetentionPolicy{Typ: "inherit"},
			scope: RetentionScopeChannel,
			want:  RetentionPolicy{Type: RetentionInherit},
		},
		{
			name:    "inherit at team scope is an error",
			raw:     RawRetentionPolicy{Typ: "inherit"},
			scope:   RetentionScopeTeam,
			wantErr: true,
		},
		{
			name:    "unknown tag fails closed",
			raw:     RawRetentionPolicy{Typ: "keepforever"},
			scope:   RetentionScopeTeam,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRetention(tt.raw, tt.scope)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
