package phh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdemgym/internal/game"
)

const defaultFilename = "session.phhs"

// WriterConfig controls where and how hands are written.
type WriterConfig struct {
	Dir      string
	Filename string // session file name, defaults to session.phhs
	Options         // labels applied to every hand

	// FlushEvery buffers this many hands before appending to the session
	// file. Zero or one writes every hand immediately.
	FlushEvery int

	// PerHand additionally writes each hand to <Dir>/<hand>.phh.
	PerHand bool

	Clock quartz.Clock
}

// Writer appends completed hands to a PHH session file as numbered
// sections. It implements game.Recorder and is safe for concurrent use.
type Writer struct {
	cfg     WriterConfig
	logger  *log.Logger
	outPath string

	mu       sync.Mutex
	flushMu  sync.Mutex
	buffer   []*HandHistory
	sections int
	closed   bool
}

var _ game.Recorder = (*Writer)(nil)

// NewWriter creates the output directory and resumes numbering after the
// last section already present in the session file.
func NewWriter(cfg WriterConfig, logger *log.Logger) (*Writer, error) {
	if cfg.Dir == "" {
		return nil, errors.New("phh: Dir is required")
	}
	if cfg.Filename == "" {
		cfg.Filename = defaultFilename
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("phh: create dir: %w", err)
	}

	outPath := filepath.Join(cfg.Dir, cfg.Filename)
	last, err := readLastSection(outPath)
	if err != nil {
		return nil, fmt.Errorf("phh: read sections: %w", err)
	}

	return &Writer{
		cfg:      cfg,
		logger:   logger.WithPrefix("phh"),
		outPath:  outPath,
		sections: last,
	}, nil
}

// Path returns the session file path.
func (w *Writer) Path() string { return w.outPath }

// RecordHand converts and buffers a completed hand.
func (w *Writer) RecordHand(h game.HandRecord) error {
	opts := w.cfg.Options
	opts.Time = w.cfg.Clock.Now()
	hist := FromRecord(h, opts)

	if w.cfg.PerHand {
		if err := WriteHandFile(filepath.Join(w.cfg.Dir, h.ID+".phh"), hist); err != nil {
			return err
		}
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errors.New("phh: writer closed")
	}
	w.buffer = append(w.buffer, hist)
	full := len(w.buffer) >= max(w.cfg.FlushEvery, 1)
	w.mu.Unlock()

	if full {
		return w.Flush()
	}
	return nil
}

// Flush appends buffered hands to the session file.
func (w *Writer) Flush() error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	hands := append([]*HandHistory(nil), w.buffer...)
	base := w.sections
	w.mu.Unlock()
	if len(hands) == 0 {
		return nil
	}

	file, err := os.OpenFile(w.outPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("phh: open session: %w", err)
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	written := 0
	for _, hand := range hands {
		if err = writeSection(bw, base+written+1, hand); err != nil {
			err = fmt.Errorf("phh: encode hand %s: %w", hand.HandID, err)
			break
		}
		written++
	}
	if ferr := bw.Flush(); ferr != nil {
		// Nothing is known to have reached the file.
		written, err = 0, ferr
	}

	w.mu.Lock()
	w.buffer = w.buffer[written:]
	w.sections = base + written
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("Failed to write hand histories", "path", w.outPath, "error", err)
		return err
	}
	w.logger.Debug("Flushed hand histories", "hands", written, "last_section", base+written)
	return nil
}

// Close flushes anything buffered and rejects further hands.
func (w *Writer) Close() error {
	err := w.Flush()
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return err
}

func writeSection(w io.Writer, section int, hand *HandHistory) error {
	if section > 1 {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "[%d]\n", section); err != nil {
		return err
	}
	return Encode(w, hand)
}

func readLastSection(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	last := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) >= 3 && line[0] == '[' && line[len(line)-1] == ']' {
			if n, err := strconv.Atoi(line[1 : len(line)-1]); err == nil && n > last {
				last = n
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return last, nil
}

// ReadSession decodes every hand in a session file, ordered by section.
func ReadSession(path string) ([]*HandHistory, error) {
	var sections map[string]HandHistory
	if _, err := toml.DecodeFile(path, &sections); err != nil {
		return nil, fmt.Errorf("phh: decode session: %w", err)
	}
	type numbered struct {
		n    int
		hand HandHistory
	}
	list := make([]numbered, 0, len(sections))
	for key, hand := range sections {
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("phh: section %q is not numeric", key)
		}
		list = append(list, numbered{n, hand})
	}
	slices.SortFunc(list, func(a, b numbered) int { return a.n - b.n })

	hands := make([]*HandHistory, len(list))
	for i := range list {
		hands[i] = &list[i].hand
	}
	return hands, nil
}

// WriteHandFile writes a single hand to path atomically: readers see either
// the previous file or the complete new one. A failed encode leaves the
// previous file untouched.
func WriteHandFile(path string, hand *HandHistory) error {
	return replaceFile(path, func(w io.Writer) error {
		return Encode(w, hand)
	})
}

// replaceFile streams fill into a sibling temp file and renames it over
// path once it is synced. The temp file is removed on any failure.
func replaceFile(path string, fill func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("phh: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	bw := bufio.NewWriter(f)
	if err := fill(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("phh: write %s: %w", path, err)
	}
	if err := f.Chmod(0o644); err != nil {
		return fmt.Errorf("phh: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("phh: sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("phh: %w", err)
	}
	return os.Rename(f.Name(), path)
}
