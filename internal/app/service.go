// Package app glues the Classifier, Envelope, and Store into the
// consumer task the daemon's main loop drives per ChangeEvent.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/clipkeep/clipkeepd/internal/classifier"
	"github.com/clipkeep/clipkeepd/internal/crypto"
	"github.com/clipkeep/clipkeepd/internal/domain"
	"github.com/clipkeep/clipkeepd/internal/monitor"
	"github.com/clipkeep/clipkeepd/internal/secure"
	"github.com/clipkeep/clipkeepd/internal/store"
)

// Store is the subset of internal/store's Store the consumer needs.
type Store interface {
	Insert(item domain.Item, blob []byte) (int64, error)
	Dedupe(previewText *string, dataType domain.DataType) (removed int, maxPrevCount int, err error)
}

// Service is the orchestration type binding one daemon's collaborators:
// the store, the encryption envelope, the classifier, a clock, and a
// logger. HandleChange is the single entry point the consumer goroutine
// calls once per ChangeEvent.
type Service struct {
	Store      Store
	Envelope   *crypto.Envelope
	Classifier *classifier.Classifier
	Memory     *secure.MemoryTracker
	Clock      func() time.Time
}

// NewService returns a Service with its collaborators wired and Clock
// defaulted to time.Now.
func NewService(st *store.Store, envelope *crypto.Envelope, clf *classifier.Classifier, mem *secure.MemoryTracker) *Service {
	return &Service{
		Store:      st,
		Envelope:   envelope,
		Classifier: clf,
		Memory:     mem,
		Clock:      time.Now,
	}
}

// Run receives ChangeEvents from in until the channel closes or ctx is
// cancelled, calling HandleChange for each. A single event's failure
// never stops the loop.
func (s *Service) Run(ctx context.Context, in <-chan domain.ChangeEvent, host monitor.HostClipboard) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			if err := s.HandleChange(ctx, ev, host); err != nil {
				log.Printf("app: handling change event (counter=%d): %v", ev.Counter, err)
			}
		}
	}
}

// HandleChange implements the consumer's per-event pipeline: read
// payload bytes (image preferred over text), classify, optionally
// encrypt, dedupe against prior copies, and insert the new row. A
// payload-read miss is logged and the event skipped; every other step
// is best-effort per the daemon's error taxonomy, never propagating a
// single event's failure into a process abort.
func (s *Service) HandleChange(_ context.Context, ev domain.ChangeEvent, host monitor.HostClipboard) error {
	processed, ok, err := s.read(ev, host)
	if err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}
	if !ok {
		log.Printf("app: no readable payload for change event (counter=%d), skipping", ev.Counter)
		return nil
	}

	payloadSize := int64(len(processed.Blob))
	if err := s.Memory.Allocate(payloadSize); err != nil {
		log.Printf("app: dropping change event (counter=%d): %v", ev.Counter, err)
		return nil
	}
	defer s.Memory.Free(payloadSize)

	blob := processed.Blob
	isEncrypted := false

	if processed.IsSensitive {
		sealed, err := s.Envelope.Encrypt(blob)
		if err != nil {
			log.Printf("app: encryption failed for change event (counter=%d), storing plaintext: %v", ev.Counter, err)
		} else {
			blob = sealed
			isEncrypted = true
		}
	}

	_, maxPrevCount, err := s.Store.Dedupe(processed.PreviewText, processed.DataType)
	if err != nil {
		return fmt.Errorf("dedupe: %w", err)
	}

	item := domain.Item{
		Timestamp:   s.Clock(),
		DataType:    processed.DataType,
		IsSensitive: processed.IsSensitive,
		IsEncrypted: isEncrypted,
		PreviewText: processed.PreviewText,
		DataSize:    int64(len(processed.Blob)),
		Metadata:    processed.Metadata,
		CopyCount:   maxPrevCount + 1,
	}

	if _, err := s.Store.Insert(item, blob); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// read tries the image path first, then the text path, matching the
// consumer contract's preference order. ok is false only when the host
// offered no readable payload at all.
func (s *Service) read(_ domain.ChangeEvent, host monitor.HostClipboard) (domain.Processed, bool, error) {
	if data, typeTag, ok, err := host.ReadImage(); err != nil {
		return domain.Processed{}, false, err
	} else if ok {
		processed, err := s.Classifier.ProcessImage(data, typeTag)
		if err != nil {
			log.Printf("app: image decode failed: %v", err)
			return domain.Processed{}, false, nil
		}
		return processed, true, nil
	}

	if text, ok, err := host.ReadText(); err != nil {
		return domain.Processed{}, false, err
	} else if ok {
		types, err := host.AvailableTypes()
		if err != nil {
			types = nil
		}
		return s.Classifier.ProcessText(text, types), true, nil
	}

	return domain.Processed{}, false, nil
}
