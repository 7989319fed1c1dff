package router

import (
	"context"
	"strings"
	"time"

	"castbot/internal/services/broadcast"
	"castbot/internal/services/scheduler"
	"castbot/internal/storage"
	kit "castbot/internal/transport"
	logx "castbot/pkg/logx"
)

type Access int

const (
	AccessEveryone Access = iota
	AccessOwnerOnly
)

type Command struct {
	// Keyword is matched case-sensitively against the leading /command token.
	Keyword string
	Access  Access
	Handle  HandlerFunc

	// Unbounded skips the per-command timeout. The broadcast fan-out runs
	// for as long as the audience and the send pacing require; racing it
	// against a deadline would drop the tail of a large subscriber list.
	Unbounded bool
}

type Request struct {
	Msg     *kit.Message
	Chat    kit.ChatTarget
	FromID  int64
	Command string
	Args    []string

	Logger logx.Logger
}

type Deps struct {
	Adapter     kit.Adapter
	Store       storage.Store
	Broadcaster *broadcast.Service
	Scheduler   *scheduler.Service

	OwnerID int64
	Timeout time.Duration // per-command handler timeout (0 disables)
	Log     logx.Logger
}

// Router dispatches inbound updates to command handlers. Privileged
// commands are guarded by a single equality check against the owner id.
type Router struct {
	adapter kit.Adapter
	store   storage.Store
	caster  *broadcast.Service
	sched   *scheduler.Service

	owner int64
	log   logx.Logger

	cmds  map[string]Command
	chain func(c Command) HandlerFunc
}

func New(deps Deps) *Router {
	log := deps.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	r := &Router{
		adapter: deps.Adapter,
		store:   deps.Store,
		caster:  deps.Broadcaster,
		sched:   deps.Scheduler,
		owner:   deps.OwnerID,
		log:     log,
		cmds:    map[string]Command{},
	}

	base := []Middleware{
		MWPanicRecover(log),
		MWRequestLog(log),
	}
	bounded := append(append([]Middleware(nil), base...), MWTimeout(deps.Timeout))
	r.chain = func(c Command) HandlerFunc {
		if c.Unbounded {
			return Chain(c.Handle, base...)
		}
		return Chain(c.Handle, bounded...)
	}

	r.register(Command{Keyword: "start", Access: AccessEveryone, Handle: r.handleStart})
	r.register(Command{Keyword: "stop", Access: AccessEveryone, Handle: r.handleStop})
	r.register(Command{Keyword: "broadcast", Access: AccessOwnerOnly, Handle: r.handleBroadcast, Unbounded: true})
	r.register(Command{Keyword: "schedule", Access: AccessOwnerOnly, Handle: r.handleSchedule})
	r.register(Command{Keyword: "list_schedules", Access: AccessOwnerOnly, Handle: r.handleListSchedules})
	r.register(Command{Keyword: "cancel_schedule", Access: AccessOwnerOnly, Handle: r.handleCancelSchedule})

	return r
}

func (r *Router) register(c Command) {
	r.cmds[c.Keyword] = c
}

// HandleUpdate routes a single update. Unknown commands and non-command
// text are ignored; handler errors are logged by middleware and never
// propagate to the caller.
func (r *Router) HandleUpdate(ctx context.Context, up kit.Update) {
	if up.Kind != kit.UpdateMessage || up.Message == nil {
		return
	}
	m := up.Message

	keyword, args, ok := splitCommand(m.Text)
	if !ok {
		return
	}
	cmd, ok := r.cmds[keyword]
	if !ok {
		return
	}

	req := &Request{
		Msg:     m,
		Chat:    kit.ChatTarget{ChatID: m.ChatID},
		FromID:  m.FromID,
		Command: keyword,
		Args:    args,
		Logger:  r.log.With(logx.String("cmd", keyword), logx.Int64("from_id", m.FromID)),
	}

	if cmd.Access == AccessOwnerOnly && req.FromID != r.owner {
		req.Logger.Warn("unauthorized command attempt")
		r.reply(ctx, req, textNotAuthorized)
		return
	}

	_ = r.chain(cmd)(ctx, req)
}

// splitCommand extracts the command keyword and arguments from message
// text. The keyword match is case-sensitive; a "@botname" suffix on the
// command token is stripped.
func splitCommand(text string) (keyword string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	keyword = strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(keyword, '@'); i >= 0 {
		keyword = keyword[:i]
	}
	if keyword == "" {
		return "", nil, false
	}
	return keyword, fields[1:], true
}

func (r *Router) reply(ctx context.Context, req *Request, text string) {
	if _, err := r.adapter.SendText(ctx, req.Chat, text, nil); err != nil {
		req.Logger.Warn("reply failed", logx.Err(err))
	}
}
