package service

import (
	"testing"
	"time"

	"forest_monitor/internal/models"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func stateWith(ch models.Channel, v float64) models.LatestState {
	st := models.NewLatestState(t0)
	st.Readings[ch] = models.Reading{Value: v, At: t0}
	return st
}

func TestHistoryBuffer_Defaults(t *testing.T) {
	b := NewHistoryBuffer(0, 0)
	if b.Capacity() != DefaultHistoryCapacity {
		t.Fatalf("capacity = %d", b.Capacity())
	}
	if b.interval != DefaultAdmitInterval {
		t.Fatalf("interval = %v", b.interval)
	}
}

func TestHistoryBuffer_FirstUpdateAlwaysAdmitted(t *testing.T) {
	for _, ch := range models.Channels {
		b := NewHistoryBuffer(20, 5*time.Second)
		if !b.MaybeAdmit(ch, models.NewLatestState(t0), t0) {
			t.Fatalf("first update on %s not admitted", ch)
		}
		if b.Len() != 1 {
			t.Fatalf("len = %d", b.Len())
		}
	}
}

func TestHistoryBuffer_AdmissionPolicy(t *testing.T) {
	tests := []struct {
		name    string
		trigger models.Channel
		elapsed time.Duration
		want    bool
	}{
		{"gauge within interval", models.ChannelTemperature, time.Second, false},
		{"gauge exactly at interval", models.ChannelTemperature, 5 * time.Second, false},
		{"gauge after interval", models.ChannelTemperature, 5*time.Second + time.Millisecond, true},
		{"fire within interval", models.ChannelFireProbability, time.Second, true},
		{"fire with zero elapsed", models.ChannelFireProbability, 0, true},
		{"gauge with clock going back", models.ChannelHumidity, -time.Minute, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := NewHistoryBuffer(20, 5*time.Second)
			b.MaybeAdmit(models.ChannelCO, models.NewLatestState(t0), t0)

			got := b.MaybeAdmit(tc.trigger, models.NewLatestState(t0), t0.Add(tc.elapsed))
			if got != tc.want {
				t.Fatalf("MaybeAdmit = %v; want %v", got, tc.want)
			}
			wantLen := 1
			if tc.want {
				wantLen = 2
			}
			if b.Len() != wantLen {
				t.Fatalf("len = %d; want %d", b.Len(), wantLen)
			}
		})
	}
}

func TestHistoryBuffer_EvictsOldestAtCapacity(t *testing.T) {
	b := NewHistoryBuffer(20, 5*time.Second)
	for i := 0; i < 25; i++ {
		b.MaybeAdmit(models.ChannelFireProbability, stateWith(models.ChannelSmoke, float64(i)), t0.Add(time.Duration(i)*time.Second))
		if b.Len() > 20 {
			t.Fatalf("len %d exceeds capacity after %d admissions", b.Len(), i+1)
		}
	}
	all := b.All()
	if len(all) != 20 {
		t.Fatalf("len = %d; want 20", len(all))
	}
	if got := all[0].State.Readings[models.ChannelSmoke].Value; got != 5 {
		t.Fatalf("oldest smoke = %v; want 5", got)
	}
	if got := all[19].State.Readings[models.ChannelSmoke].Value; got != 24 {
		t.Fatalf("newest smoke = %v; want 24", got)
	}
}

func TestHistoryBuffer_LastReturnsTail(t *testing.T) {
	b := NewHistoryBuffer(20, 5*time.Second)
	for i := 0; i < 8; i++ {
		b.MaybeAdmit(models.ChannelFireProbability, stateWith(models.ChannelCO, float64(i)), t0.Add(time.Duration(i)*time.Second))
	}

	last := b.Last(5)
	if len(last) != 5 {
		t.Fatalf("len = %d", len(last))
	}
	if got := last[0].State.Readings[models.ChannelCO].Value; got != 3 {
		t.Fatalf("first of last 5 = %v; want 3", got)
	}
	if got := b.Last(100); len(got) != 8 {
		t.Fatalf("Last(100) len = %d; want 8", len(got))
	}
	if got := b.Last(0); len(got) != 0 {
		t.Fatalf("Last(0) len = %d", len(got))
	}
}

func TestHistoryBuffer_SnapshotsAreImmutable(t *testing.T) {
	b := NewHistoryBuffer(20, 5*time.Second)
	st := stateWith(models.ChannelCO2, 400)
	b.MaybeAdmit(models.ChannelCO2, st, t0)

	st.Readings[models.ChannelCO2] = models.Reading{Value: 9000}
	out := b.All()
	out[0].State.Readings[models.ChannelCO2] = models.Reading{Value: 1}

	if got := b.All()[0].State.Readings[models.ChannelCO2].Value; got != 400 {
		t.Fatalf("stored snapshot changed: %v", got)
	}
}
