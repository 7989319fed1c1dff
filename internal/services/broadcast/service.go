package broadcast

import (
	"context"
	"time"

	"castbot/internal/storage"
	kit "castbot/internal/transport"
	logx "castbot/pkg/logx"
)

const (
	scheduledTextPrefix = "Scheduled message: "
	mediaLeadIn         = "Scheduled media broadcast:"
)

type Service struct {
	store   storage.Store
	adapter kit.Adapter
	log     logx.Logger
}

func New(store storage.Store, adapter kit.Adapter, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{store: store, adapter: adapter, log: log}
}

// Broadcast sends text immediately to every subscribed user.
func (s *Service) Broadcast(ctx context.Context, text string) Report {
	return s.fanOut(ctx, "broadcast", func(ctx context.Context, to kit.ChatTarget) error {
		_, err := s.adapter.SendText(ctx, to, text, nil)
		return err
	})
}

// SendScheduled delivers a scheduled payload: text is sent with the
// scheduled-message prefix; media is preceded by a lead-in text message.
func (s *Service) SendScheduled(ctx context.Context, p Payload) Report {
	if p.Media != nil {
		m := *p.Media
		return s.fanOut(ctx, "scheduled media", func(ctx context.Context, to kit.ChatTarget) error {
			if _, err := s.adapter.SendText(ctx, to, mediaLeadIn, nil); err != nil {
				// Lead-in failures are logged per recipient but do not stop
				// the media send attempt itself.
				s.log.Warn("lead-in send failed",
					logx.Int64("chat_id", to.ChatID), logx.Err(err))
			}
			_, err := s.adapter.SendMedia(ctx, to, m, nil)
			return err
		})
	}
	text := scheduledTextPrefix + p.Text
	return s.fanOut(ctx, "scheduled text", func(ctx context.Context, to kit.ChatTarget) error {
		_, err := s.adapter.SendText(ctx, to, text, nil)
		return err
	})
}

// fanOut loads the full subscriber list and attempts delivery to each
// subscribed user sequentially. Failures are isolated per recipient.
func (s *Service) fanOut(ctx context.Context, name string, send func(ctx context.Context, to kit.ChatTarget) error) Report {
	start := time.Now()

	subs, err := s.store.ListAll(ctx)
	if err != nil {
		s.log.Error("fan-out aborted: subscriber list unavailable",
			logx.String("kind", name), logx.Err(err))
		return Report{}
	}

	var rep Report
	for _, sub := range subs {
		if !sub.Subscribed {
			continue
		}
		rep.Attempted++
		to := kit.ChatTarget{ChatID: sub.TelegramID}
		if err := send(ctx, to); err != nil {
			rep.Failed++
			s.log.Warn("delivery failed",
				logx.String("kind", name),
				logx.Int64("chat_id", sub.TelegramID),
				logx.Err(err))
		}
	}

	if rep.Attempted == 0 {
		s.log.Info("no subscribers to deliver to", logx.String("kind", name))
		return rep
	}

	s.log.Info("fan-out finished",
		logx.String("kind", name),
		logx.Int("attempted", rep.Attempted),
		logx.Int("failed", rep.Failed),
		logx.Duration("dur", time.Since(start)))
	return rep
}
