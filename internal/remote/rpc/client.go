// Package rpc is the HTTP JSON implementation of the remote team service
// client and the push-state channel.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"

	"github.com/BergQuester/client/internal/domain"
	"github.com/BergQuester/client/internal/gregor"
	"github.com/BergQuester/client/internal/remote"
)

// Client speaks JSON over HTTP to the team service. Each operation is one
// POST to baseURL/<method>; rejected calls decode into *remote.CallError.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     hclog.Logger
}

func New(baseURL, sessionToken string, log hclog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   sessionToken,
		http:    cleanhttp.DefaultPooledClient(),
		log:     log.Named("rpc"),
	}
}

type rpcFailure struct {
	Code int    `json:"code"`
	Desc string `json:"desc"`
}

func (c *Client) call(ctx context.Context, method string, waitingKey domain.WaitingKey, arg, res any) error {
	body, err := json.Marshal(arg)
	if err != nil {
		return fmt.Errorf("encoding %s arg: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Token", c.token)
	req.Header.Set("X-Call-ID", uuid.NewString())
	if waitingKey != "" {
		req.Header.Set("X-Waiting-Key", string(waitingKey))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var fail rpcFailure
		if err := json.NewDecoder(resp.Body).Decode(&fail); err != nil {
			return &remote.CallError{Code: resp.StatusCode, Desc: resp.Status}
		}
		return &remote.CallError{Code: fail.Code, Desc: fail.Desc}
	}
	if res == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	return nil
}

func (c *Client) TeamCreate(ctx context.Context, arg remote.TeamCreateArg) (remote.TeamCreateRes, error) {
	var res remote.TeamCreateRes
	err := c.call(ctx, "team.create", arg.WaitingKey, arg, &res)
	return res, err
}

func (c *Client) TeamJoin(ctx context.Context, arg remote.TeamJoinArg) (remote.TeamJoinRes, error) {
	var res remote.TeamJoinRes
	err := c.call(ctx, "team.acceptInvite", arg.WaitingKey, arg, &res)
	return res, err
}

func (c *Client) TeamLeave(ctx context.Context, arg remote.TeamLeaveArg) error {
	return c.call(ctx, "team.leave", arg.WaitingKey, arg, nil)
}

func (c *Client) TeamAddMember(ctx context.Context, arg remote.TeamAddMemberArg) error {
	return c.call(ctx, "team.addMember", arg.WaitingKey, arg, nil)
}

func (c *Client) TeamRemoveMember(ctx context.Context, arg remote.TeamRemoveMemberArg) error {
	return c.call(ctx, "team.removeMember", arg.WaitingKey, arg, nil)
}

func (c *Client) TeamEditMember(ctx context.Context, arg remote.TeamEditMemberArg) error {
	return c.call(ctx, "team.editMember", arg.WaitingKey, arg, nil)
}

func (c *Client) TeamInviteByEmail(ctx context.Context, arg remote.TeamInviteByEmailArg) (remote.TeamInviteByEmailRes, error) {
	var res remote.TeamInviteByEmailRes
	err := c.call(ctx, "team.inviteByEmail", arg.WaitingKey, arg, &res)
	return res, err
}

func (c *Client) TeamList(ctx context.Context) ([]domain.TeamMeta, error) {
	var res struct {
		Teams []domain.TeamMeta `json:"teams"`
	}
	err := c.call(ctx, "team.list", "", struct{}{}, &res)
	return res.Teams, err
}

func (c *Client) TeamGet(ctx context.Context, name string) (remote.TeamGetRes, error) {
	var res remote.TeamGetRes
	err := c.call(ctx, "team.get", "", teamArg{Team: name}, &res)
	return res, err
}

func (c *Client) TeamListRequests(ctx context.Context, name string) ([]domain.RequestInfo, error) {
	var res struct {
		Requests []domain.RequestInfo `json:"requests"`
	}
	err := c.call(ctx, "team.listRequests", "", teamArg{Team: name}, &res)
	return res.Requests, err
}

func (c *Client) TeamCanManageRequests(ctx context.Context, name string) (bool, error) {
	var res struct {
		CanManage bool `json:"can_manage"`
	}
	err := c.call(ctx, "team.canManageRequests", "", teamArg{Team: name}, &res)
	return res.CanManage, err
}

func (c *Client) TeamIgnoreRequest(ctx context.Context, arg remote.TeamRequestArg) error {
	return c.call(ctx, "team.ignoreRequest", arg.WaitingKey, arg, nil)
}

func (c *Client) TeamAcceptRequest(ctx context.Context, arg remote.TeamRequestArg) error {
	return c.call(ctx, "team.acceptRequest", arg.WaitingKey, arg, nil)
}

func (c *Client) ChannelList(ctx context.Context, team string) ([]domain.ChannelInfo, error) {
	var res struct {
		Channels []domain.ChannelInfo `json:"channels"`
	}
	err := c.call(ctx, "channel.list", "", teamArg{Team: team}, &res)
	return res.Channels, err
}

func (c *Client) ChannelCreate(ctx context.Context, arg remote.ChannelCreateArg) error {
	return c.call(ctx, "channel.create", arg.WaitingKey, arg, nil)
}

func (c *Client) ChannelDelete(ctx context.Context, team string, conv domain.ConversationID) error {
	return c.call(ctx, "channel.delete", "", convArg{Team: team, ConversationID: conv}, nil)
}

func (c *Client) ChannelJoin(ctx context.Context, team string, conv domain.ConversationID) error {
	return c.call(ctx, "channel.join", "", convArg{Team: team, ConversationID: conv}, nil)
}

func (c *Client) ChannelLeave(ctx context.Context, team string, conv domain.ConversationID) error {
	return c.call(ctx, "channel.leave", "", convArg{Team: team, ConversationID: conv}, nil)
}

func (c *Client) TeamSetSettings(ctx context.Context, team string, open bool, joinAs domain.TeamRole) error {
	arg := struct {
		Team   string          `json:"team"`
		Open   bool            `json:"open"`
		JoinAs domain.TeamRole `json:"join_as"`
	}{team, open, joinAs}
	return c.call(ctx, "team.setSettings", "", arg, nil)
}

func (c *Client) SetTarsDisabled(ctx context.Context, team string, disabled bool) error {
	return c.call(ctx, "team.setTarsDisabled", "", flagArg{Team: team, Value: disabled}, nil)
}

func (c *Client) GetTarsDisabled(ctx context.Context, team string) (bool, error) {
	var res struct {
		Disabled bool `json:"disabled"`
	}
	err := c.call(ctx, "team.getTarsDisabled", "", teamArg{Team: team}, &res)
	return res.Disabled, err
}

func (c *Client) TeamSetShowcase(ctx context.Context, team string, showcased bool) error {
	return c.call(ctx, "team.setShowcase", "", flagArg{Team: team, Value: showcased}, nil)
}

func (c *Client) TeamSetAnyMemberShowcase(ctx context.Context, team string, anyMember bool) error {
	return c.call(ctx, "team.setAnyMemberShowcase", "", flagArg{Team: team, Value: anyMember}, nil)
}

func (c *Client) TeamSetMemberShowcase(ctx context.Context, team string, showcased bool) error {
	return c.call(ctx, "team.setMemberShowcase", "", flagArg{Team: team, Value: showcased}, nil)
}

func (c *Client) TeamSetRetention(ctx context.Context, arg remote.SetRetentionArg) error {
	return c.call(ctx, "team.setRetention", arg.WaitingKey, arg, nil)
}

// State implements gregor.PushState.
func (c *Client) State(ctx context.Context) ([]gregor.Item, error) {
	var res struct {
		Items []gregor.Item `json:"items"`
	}
	err := c.call(ctx, "gregor.state", "", struct{}{}, &res)
	return res.Items, err
}

// Update implements gregor.PushState.
func (c *Client) Update(ctx context.Context, category string, body []byte, dtime time.Duration) error {
	arg := struct {
		Category string        `json:"category"`
		Body     []byte        `json:"body"`
		Dtime    time.Duration `json:"dtime"`
	}{category, body, dtime}
	return c.call(ctx, "gregor.update", "", arg, nil)
}

// Dismiss implements gregor.PushState.
func (c *Client) Dismiss(ctx context.Context, msgID string) error {
	arg := struct {
		MsgID string `json:"msg_id"`
	}{msgID}
	return c.call(ctx, "gregor.dismiss", "", arg, nil)
}

type teamArg struct {
	Team string `json:"team"`
}

type convArg struct {
	Team           string                `json:"team"`
	ConversationID domain.ConversationID `json:"conversation_id"`
}

type flagArg struct {
	Team  string `json:"team"`
	Value bool   `json:"value"`
}

var (
	_ remote.Client    = (*Client)(nil)
	_ gregor.PushState = (*Client)(nil)
)
