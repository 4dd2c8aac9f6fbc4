package infra

import (
	"time"

	"image-gateway/middleware/swcache/domain"
)

// snapshotRecord é o formato serializado usado pelos stores persistentes.
type snapshotRecord struct {
	Status   int                 `json:"status"`
	Header   map[string][]string `json:"header,omitempty"`
	Body     []byte              `json:"body"`
	Type     string              `json:"type"`
	StoredAt time.Time           `json:"stored_at"`
}

func toRecord(s domain.Snapshot) snapshotRecord {
	return snapshotRecord{
		Status:   s.Status,
		Header:   s.Header,
		Body:     s.Body,
		Type:     string(s.Type),
		StoredAt: s.StoredAt.UTC(),
	}
}

func (r snapshotRecord) snapshot() domain.Snapshot {
	return domain.Snapshot{
		Status:   r.Status,
		Header:   r.Header,
		Body:     r.Body,
		Type:     domain.ResponseType(r.Type),
		StoredAt: r.StoredAt,
	}
}
