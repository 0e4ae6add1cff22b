package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/HerbHall/showcase/pkg/models"
	"github.com/HerbHall/showcase/pkg/plugin"
)

func TestLogger_NotNil(t *testing.T) {
	l := Logger(t)
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewStore_Usable(t *testing.T) {
	db := NewStore(t)
	if db == nil {
		t.Fatal("expected non-nil store")
	}
	if err := db.DB().PingContext(context.Background()); err != nil {
		t.Fatalf("PingContext: %v", err)
	}
}

func TestMockBus_RecordsEvents(t *testing.T) {
	bus := NewMockBus()

	ev := plugin.Event{Topic: "test.topic", Source: "test"}
	if err := bus.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	bus.PublishAsync(context.Background(), plugin.Event{Topic: "test.async", Source: "test"})

	events := bus.Events()
	if len(events) != 2 {
		t.Fatalf("Events len = %d, want 2", len(events))
	}
	if events[0].Topic != "test.topic" {
		t.Errorf("events[0].Topic = %q, want test.topic", events[0].Topic)
	}
	if events[1].Topic != "test.async" {
		t.Errorf("events[1].Topic = %q, want test.async", events[1].Topic)
	}
}

func TestMockBus_Reset(t *testing.T) {
	bus := NewMockBus()
	_ = bus.Publish(context.Background(), plugin.Event{Topic: "a"})
	bus.Reset()
	if len(bus.Events()) != 0 {
		t.Error("expected empty events after Reset")
	}
}

func TestClock_Advance(t *testing.T) {
	c := NewClock()
	start := c.Now()
	c.Advance(5 * time.Minute)
	if got := c.Now().Sub(start); got != 5*time.Minute {
		t.Errorf("Advance: elapsed = %v, want 5m", got)
	}
}

func TestClock_DefaultsToEpoch(t *testing.T) {
	if got := NewClock().Now(); !got.Equal(Epoch) {
		t.Errorf("Now() = %v, want %v", got, Epoch)
	}
}

func TestClock_Tick(t *testing.T) {
	c := NewClock().Tick(time.Second)
	first, second := c.Now(), c.Now()
	if !first.Equal(Epoch) {
		t.Errorf("first = %v, want %v", first, Epoch)
	}
	if got := second.Sub(first); got != time.Second {
		t.Errorf("second - first = %v, want 1s", got)
	}
}

func TestClock_Set(t *testing.T) {
	c := NewClock()
	target := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	c.Set(target)
	if !c.Now().Equal(target) {
		t.Errorf("Set: got %v, want %v", c.Now(), target)
	}
}

func TestMockBus_DeliversToSubscribers(t *testing.T) {
	bus := NewMockBus()
	var topic, all []string
	bus.Subscribe("blog.post.created", func(_ context.Context, e plugin.Event) {
		topic = append(topic, e.Topic)
	})
	bus.SubscribeAll(func(_ context.Context, e plugin.Event) {
		all = append(all, e.Topic)
	})

	_ = bus.Publish(context.Background(), plugin.Event{Topic: "blog.post.created"})
	bus.PublishAsync(context.Background(), plugin.Event{Topic: "site.setting.updated"})

	if len(topic) != 1 {
		t.Errorf("topic handler calls = %d, want 1", len(topic))
	}
	if len(all) != 2 {
		t.Errorf("all handler calls = %d, want 2", len(all))
	}
	if got := bus.Topics(); len(got) != 2 || got[1] != "site.setting.updated" {
		t.Errorf("Topics() = %v", got)
	}
}

func TestNewPost_Defaults(t *testing.T) {
	p := NewPost()
	if p.Slug != "test-post" {
		t.Errorf("Slug = %q, want test-post", p.Slug)
	}
	if p.Status != models.PostPublished {
		t.Errorf("Status = %q, want published", p.Status)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestNewPost_WithOptions(t *testing.T) {
	p := NewPost(WithTitle("Hello There"), WithTags("go", "sqlite"), Draft())
	if p.Slug != "hello-there" {
		t.Errorf("Slug = %q, want hello-there", p.Slug)
	}
	if p.Status != models.PostDraft || p.PublishedAt != nil {
		t.Errorf("Draft() left status %q published_at %v", p.Status, p.PublishedAt)
	}
	if len(p.Tags) != 2 {
		t.Errorf("Tags = %v, want 2 tags", p.Tags)
	}
}

func TestNewPortfolioItem_WithOptions(t *testing.T) {
	item := NewPortfolioItem(WithItemTitle("Shop Rebuild"), Featured(3))
	if item.Slug != "shop-rebuild" {
		t.Errorf("Slug = %q, want shop-rebuild", item.Slug)
	}
	if !item.Featured || item.SortOrder != 3 {
		t.Errorf("Featured = %v, SortOrder = %d, want true, 3", item.Featured, item.SortOrder)
	}
	if err := item.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
