package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"castbot/internal/services/broadcast"
	"castbot/internal/services/scheduler"
	"castbot/internal/storage"
	logx "castbot/pkg/logx"
)

func (r *Router) handleStart(ctx context.Context, req *Request) error {
	_, err := r.store.FindByTelegramID(ctx, req.FromID)
	switch {
	case err == nil:
		// Second /start never creates a second row.
		r.reply(ctx, req, textAlreadySubscribed)
		return nil
	case !errors.Is(err, storage.ErrNotFound):
		r.reply(ctx, req, textProfileError)
		return err
	}

	sub := storage.Subscriber{
		TelegramID: req.FromID,
		FirstName:  req.Msg.FirstName,
		LastName:   req.Msg.LastName,
		JoinedAt:   time.Now().UTC(),
		Subscribed: true,
	}
	if _, err := r.store.Create(ctx, sub); err != nil {
		r.reply(ctx, req, textProfileError)
		return err
	}

	name := req.Msg.FirstName
	if name == "" {
		name = textWelcomeFallback
	}
	req.Logger.Info("subscriber created")
	r.reply(ctx, req, fmt.Sprintf("Welcome %s! You are now subscribed to broadcast messages.", name))
	return nil
}

func (r *Router) handleStop(ctx context.Context, req *Request) error {
	unsub := false
	_, err := r.store.Update(ctx, req.FromID, storage.SubscriberUpdate{Subscribed: &unsub})
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.reply(ctx, req, textProfileError)
		return err
	}
	req.Logger.Info("subscriber opted out")
	r.reply(ctx, req, textUnsubscribed)
	return nil
}

func (r *Router) handleBroadcast(ctx context.Context, req *Request) error {
	text := strings.Join(req.Args, " ")
	if strings.TrimSpace(text) == "" {
		r.reply(ctx, req, textBroadcastUsage)
		return nil
	}

	rep := r.caster.Broadcast(ctx, text)
	req.Logger.Info("broadcast sent",
		logx.Int("attempted", rep.Attempted), logx.Int("failed", rep.Failed))
	r.reply(ctx, req, textBroadcastSent)
	return nil
}

func (r *Router) handleSchedule(ctx context.Context, req *Request) error {
	loc := r.sched.Location()
	parsed, err := scheduler.ParseArgs(req.Args, time.Now(), loc)
	if err != nil {
		r.reply(ctx, req, scheduleErrorText(err))
		return nil
	}

	var payload broadcast.Payload
	if parsed.Media {
		if req.Msg.ReplyTo == nil {
			r.reply(ctx, req, textScheduleNeedReply)
			return nil
		}
		media := req.Msg.ReplyTo.Media
		if media == nil {
			r.reply(ctx, req, textScheduleBadMedia)
			return nil
		}
		m := *media
		m.Caption = parsed.Text
		payload = broadcast.Payload{Media: &m}
	} else {
		payload = broadcast.Payload{Text: parsed.Text}
	}

	id, err := r.sched.Schedule(parsed.At, payload)
	if err != nil {
		if errors.Is(err, scheduler.ErrPastTime) {
			r.reply(ctx, req, textSchedulePast)
			return nil
		}
		r.reply(ctx, req, textProfileError)
		return err
	}

	r.reply(ctx, req, fmt.Sprintf("Message scheduled successfully for %s with ID: %s.",
		parsed.At.Format("02/01/2006 15:04"), id))
	return nil
}

func scheduleErrorText(err error) string {
	switch {
	case errors.Is(err, scheduler.ErrUsage):
		return textScheduleUsage
	case errors.Is(err, scheduler.ErrBadDateTime):
		return textScheduleBadDate
	case errors.Is(err, scheduler.ErrPastTime):
		return textSchedulePast
	case errors.Is(err, scheduler.ErrEmptyText):
		return textScheduleEmptyText
	default:
		return textScheduleUsage
	}
}

func (r *Router) handleListSchedules(ctx context.Context, req *Request) error {
	snap := r.sched.Snapshot()
	if len(snap) == 0 {
		r.reply(ctx, req, textNoSchedules)
		return nil
	}

	blocks := make([]string, 0, len(snap))
	for _, j := range snap {
		blocks = append(blocks, fmt.Sprintf("ID: %s\nDate: %s\nMessage: %s",
			j.ID, j.At.Format(time.RFC3339), j.Summary))
	}
	r.reply(ctx, req, textSchedulesHeading+"\n\n"+strings.Join(blocks, "\n\n"))
	return nil
}

func (r *Router) handleCancelSchedule(ctx context.Context, req *Request) error {
	if len(req.Args) != 1 {
		r.reply(ctx, req, textCancelUsage)
		return nil
	}
	id := req.Args[0]
	if !r.sched.Cancel(id) {
		r.reply(ctx, req, fmt.Sprintf("No schedule found with ID: %s", id))
		return nil
	}
	r.reply(ctx, req, fmt.Sprintf("Schedule with ID: %s has been canceled.", id))
	return nil
}
