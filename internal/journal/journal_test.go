package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

func dispatch(identity string) *model.Dispatch {
	return &model.Dispatch{
		Timestamp:      time.Now().UTC(),
		Identity:       identity,
		Source:         model.SourceWeather,
		Tier:           model.TierUrgent,
		Title:          "SEVERE TSTORM WARNING",
		Mode:           model.ModeRotatingWithInsert,
		ReplayInterval: 30 * time.Minute,
	}
}

func TestAppendReplayCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.journal")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })

	seq1, err := j.Append(dispatch("NWS-KOUN-SVR-009"))
	if err != nil {
		t.Fatalf("Append first: %v", err)
	}
	seq2, err := j.Append(dispatch("NWS-KOUN-SVR-010"))
	if err != nil {
		t.Fatalf("Append second: %v", err)
	}
	if seq2 <= seq1 {
		t.Fatalf("sequence did not advance: seq1=%d seq2=%d", seq1, seq2)
	}

	if err := j.Commit(seq1); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var replayed []string
	err = j.Replay(func(_ uint64, d *model.Dispatch) error {
		replayed = append(replayed, d.Identity)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(replayed) != 1 || replayed[0] != "NWS-KOUN-SVR-010" {
		t.Fatalf("Replay identities=%v, want [NWS-KOUN-SVR-010]", replayed)
	}
}

func TestOpenCompactsCommitted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.journal")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	seq1, _ := j.Append(dispatch("a"))
	seq2, _ := j.Append(dispatch("b"))
	if err := j.Commit(seq2); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	_ = seq1
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	j2, err := Open(path)
	if err != nil {
		t.Fatalf("Open second: %v", err)
	}
	defer func() { _ = j2.Close() }()

	count := 0
	if err := j2.Replay(func(uint64, *model.Dispatch) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if count != 0 {
		t.Fatalf("committed entries survived compaction: %d", count)
	}

	// Sequence numbers keep climbing past the compacted range.
	seq3, err := j2.Append(dispatch("c"))
	if err != nil {
		t.Fatalf("Append after compact: %v", err)
	}
	if seq3 <= seq2 {
		t.Fatalf("seq3=%d, want > %d", seq3, seq2)
	}
}

func TestOpenIgnoresPartialTrailingLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.journal")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := j.Append(dispatch("NWS-KOUN-TOR-001")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Simulate torn write.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString(`{"seq":999,"dispatch":`); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close torn writer: %v", err)
	}

	j2, err := Open(path)
	if err != nil {
		t.Fatalf("Open second: %v", err)
	}
	defer func() { _ = j2.Close() }()

	var replayed []string
	err = j2.Replay(func(_ uint64, d *model.Dispatch) error {
		replayed = append(replayed, d.Identity)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay second: %v", err)
	}
	if len(replayed) != 1 || replayed[0] != "NWS-KOUN-TOR-001" {
		t.Fatalf("Replay after torn write=%v, want [NWS-KOUN-TOR-001]", replayed)
	}
}
