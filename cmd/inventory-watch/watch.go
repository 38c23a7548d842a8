package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kbukum/invstream/cache"
	"github.com/kbukum/invstream/inventory"
	"github.com/kbukum/invstream/logger"
	"github.com/kbukum/invstream/stream"
)

// newHandler applies every event to store and logs the ones that changed
// a product.
func newHandler(store *cache.Store, log *logger.Logger) stream.Handler {
	return func(_ context.Context, ev inventory.Event) error {
		changed := store.Apply(ev)
		st, ok := inventory.StateOf(ev)
		switch {
		case ok && changed:
			log.Info(string(ev.Kind()), logger.Fields(
				logger.FieldEventID, ev.FrameID(),
				logger.FieldProductID, st.ProductID,
				"available", st.TotalAvailable,
				"reserved", st.TotalReserved,
				"lots", len(st.Lots),
			))
		case ok:
			log.Debug("duplicate frame ignored", logger.Fields(logger.FieldEventID, ev.FrameID(), logger.FieldProductID, st.ProductID))
		case ev.Kind() == inventory.KindHeartbeat:
			log.Debug("heartbeat", logger.Fields(logger.FieldEventID, ev.FrameID()))
		}
		return nil
	}
}

func summarize(log *logger.Logger, store *cache.Store) {
	s := store.Stats()
	log.Info("stopped", logger.Fields(
		"products", store.Len(),
		"applied", s.Applied,
		"duplicates", s.Duplicates,
		"heartbeats", s.Heartbeats,
		"decode_errors", s.DecodeErrors,
		"evictions", s.Evictions,
	))
}

func dump(w io.Writer, store *cache.Store) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(store.States()); err != nil {
		return fmt.Errorf("dump states: %w", err)
	}
	return nil
}

func readToken(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	return token, nil
}
