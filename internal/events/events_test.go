package events

import (
	"context"
	"encoding/json"
	"testing"
)

func TestRoutingKey(t *testing.T) {
	if got := RoutingKey(TypeLevelUp); got != "gamification.level_up" {
		t.Fatalf("got %q", got)
	}
}

func TestEventJSONShape(t *testing.T) {
	e := New(TypeXPAwarded, 7, map[string]any{"points": 10})
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	json.Unmarshal(b, &m)
	if m["type"] != "xp_awarded" || m["user_id"].(float64) != 7 {
		t.Fatalf("unexpected payload %s", b)
	}
	if _, ok := m["occurred_at"]; !ok {
		t.Fatalf("missing occurred_at in %s", b)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	var p Publisher = &r
	p.Publish(context.Background(), New(TypeBadgeAwarded, 1, nil))
	p.Publish(context.Background(), New(TypeStreakUpdated, 1, nil))
	if got := r.Types(); len(got) != 2 || got[0] != TypeBadgeAwarded || got[1] != TypeStreakUpdated {
		t.Fatalf("got %v", got)
	}
}
