package service

import (
	"testing"
	"time"

	"forest_monitor/internal/models"
)

func TestStateStore_InitialState(t *testing.T) {
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := NewStateStore(at)
	st := s.Get()

	for _, ch := range models.GaugeChannels {
		v, ok := st.Value(ch)
		if !ok || v != 0 {
			t.Fatalf("%s = %v, %v; want 0, true", ch, v, ok)
		}
	}
	if st.Fire.Probability.IsKnown() {
		t.Fatalf("fire probability should start unavailable")
	}
	if v, _ := st.Value(models.ChannelFireProbability); v != models.FireProbabilitySentinel {
		t.Fatalf("fire wire value = %v; want -1", v)
	}
}

func TestStateStore_SetLastWriteWins(t *testing.T) {
	s := NewStateStore(time.Time{})
	t1 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Set(models.ChannelTemperature, 25, t1)
	// older timestamp still overwrites
	s.Set(models.ChannelTemperature, 19, t1.Add(-time.Hour))

	st := s.Get()
	if got := st.Readings[models.ChannelTemperature].Value; got != 19 {
		t.Fatalf("temperature = %v; want 19", got)
	}
}

func TestStateStore_FireSentinel(t *testing.T) {
	s := NewStateStore(time.Time{})
	now := time.Now()

	s.Set(models.ChannelFireProbability, 0.4, now)
	if p, ok := s.Get().Fire.Probability.Value(); !ok || p != 0.4 {
		t.Fatalf("fire = %v, %v; want 0.4 known", p, ok)
	}

	s.Set(models.ChannelFireProbability, -1, now)
	if s.Get().Fire.Probability.IsKnown() {
		t.Fatalf("-1 must store Unavailable")
	}
}

func TestStateStore_GetIsDeepCopy(t *testing.T) {
	s := NewStateStore(time.Time{})
	s.Set(models.ChannelSmoke, 10, time.Now())

	st := s.Get()
	st.Readings[models.ChannelSmoke] = models.Reading{Value: 999}

	if got := s.Get().Readings[models.ChannelSmoke].Value; got != 10 {
		t.Fatalf("store leaked its map: smoke = %v", got)
	}
}
