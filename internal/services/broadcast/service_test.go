package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"castbot/internal/storage"
	kit "castbot/internal/transport"
	logx "castbot/pkg/logx"
)

type fakeStore struct {
	subs    []storage.Subscriber
	listErr error
}

func (f *fakeStore) ListAll(context.Context) ([]storage.Subscriber, error) {
	return f.subs, f.listErr
}
func (f *fakeStore) Create(_ context.Context, s storage.Subscriber) (storage.Subscriber, error) {
	return s, nil
}
func (f *fakeStore) Update(context.Context, int64, storage.SubscriberUpdate) (storage.Subscriber, error) {
	return storage.Subscriber{}, storage.ErrNotFound
}
func (f *fakeStore) FindByTelegramID(context.Context, int64) (storage.Subscriber, error) {
	return storage.Subscriber{}, storage.ErrNotFound
}
func (f *fakeStore) WALCheckpoint(context.Context) error { return nil }
func (f *fakeStore) Close() error                        { return nil }

type sentItem struct {
	chatID int64
	text   string
	media  *kit.Media
}

type fakeAdapter struct {
	sent    []sentItem
	failFor map[int64]bool
}

func (f *fakeAdapter) Start(context.Context, chan<- kit.Update) error { return nil }
func (f *fakeAdapter) Stop(context.Context) error                     { return nil }

func (f *fakeAdapter) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	if f.failFor[to.ChatID] {
		return kit.MessageRef{}, errors.New("chat unreachable")
	}
	f.sent = append(f.sent, sentItem{chatID: to.ChatID, text: text})
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func (f *fakeAdapter) SendMedia(_ context.Context, to kit.ChatTarget, m kit.Media, _ *kit.SendOptions) (kit.MessageRef, error) {
	if f.failFor[to.ChatID] {
		return kit.MessageRef{}, errors.New("chat unreachable")
	}
	f.sent = append(f.sent, sentItem{chatID: to.ChatID, media: &m})
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func subscriber(id int64, subscribed bool) storage.Subscriber {
	return storage.Subscriber{
		TelegramID: id,
		FirstName:  "Test",
		JoinedAt:   time.Now().UTC(),
		Subscribed: subscribed,
	}
}

func TestBroadcastSkipsUnsubscribed(t *testing.T) {
	t.Parallel()
	st := &fakeStore{subs: []storage.Subscriber{
		subscriber(1, true),
		subscriber(2, false),
		subscriber(3, true),
	}}
	ad := &fakeAdapter{}
	svc := New(st, ad, logx.Nop())

	rep := svc.Broadcast(context.Background(), "Hello")
	if rep.Attempted != 2 || rep.Failed != 0 {
		t.Fatalf("Report = %+v, want Attempted=2 Failed=0", rep)
	}
	if len(ad.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(ad.sent))
	}
	for _, it := range ad.sent {
		if it.chatID == 2 {
			t.Fatal("delivered to unsubscribed user")
		}
		if it.text != "Hello" {
			t.Fatalf("text = %q, want %q", it.text, "Hello")
		}
	}
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	t.Parallel()
	st := &fakeStore{subs: []storage.Subscriber{
		subscriber(1, true),
		subscriber(2, true),
		subscriber(3, true),
	}}
	ad := &fakeAdapter{failFor: map[int64]bool{2: true}}
	svc := New(st, ad, logx.Nop())

	rep := svc.Broadcast(context.Background(), "hi")
	if rep.Attempted != 3 || rep.Failed != 1 {
		t.Fatalf("Report = %+v, want Attempted=3 Failed=1", rep)
	}
	// 1 and 3 still got the message.
	if len(ad.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(ad.sent))
	}
}

func TestBroadcastEmptyListIsNoop(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	svc := New(&fakeStore{}, ad, logx.Nop())

	rep := svc.Broadcast(context.Background(), "hi")
	if rep.Attempted != 0 || len(ad.sent) != 0 {
		t.Fatalf("expected no deliveries, got report %+v, sent %d", rep, len(ad.sent))
	}
}

func TestSendScheduledTextPrefix(t *testing.T) {
	t.Parallel()
	st := &fakeStore{subs: []storage.Subscriber{subscriber(1, true)}}
	ad := &fakeAdapter{}
	svc := New(st, ad, logx.Nop())

	svc.SendScheduled(context.Background(), Payload{Text: "Happy New Year"})
	if len(ad.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(ad.sent))
	}
	if got, want := ad.sent[0].text, "Scheduled message: Happy New Year"; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestSendScheduledMediaLeadIn(t *testing.T) {
	t.Parallel()
	st := &fakeStore{subs: []storage.Subscriber{subscriber(1, true)}}
	ad := &fakeAdapter{}
	svc := New(st, ad, logx.Nop())

	p := Payload{Media: &kit.Media{Kind: kit.MediaPhoto, FileID: "abc", Caption: "pic"}}
	rep := svc.SendScheduled(context.Background(), p)
	if rep.Attempted != 1 || rep.Failed != 0 {
		t.Fatalf("Report = %+v", rep)
	}
	if len(ad.sent) != 2 {
		t.Fatalf("sent %d items, want lead-in + media", len(ad.sent))
	}
	if ad.sent[0].text == "" || ad.sent[0].media != nil {
		t.Fatalf("first item should be the lead-in text, got %+v", ad.sent[0])
	}
	if ad.sent[1].media == nil || ad.sent[1].media.FileID != "abc" {
		t.Fatalf("second item should be the media, got %+v", ad.sent[1])
	}
}

func TestPayloadSummary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		p    Payload
		want string
	}{
		{name: "text", p: Payload{Text: "hello"}, want: "hello"},
		{
			name: "media",
			p:    Payload{Media: &kit.Media{Kind: kit.MediaVideo, Caption: "clip"}},
			want: "Media: video, Caption: clip",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Summary(); got != tt.want {
				t.Fatalf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}
