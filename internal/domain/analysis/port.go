package analysis

import "context"

// Model sends an image to the external multimodal model and returns its raw text reply
type Model interface {
	Describe(ctx context.Context, img Image) (string, error)
}

// Repository port (interface untuk persistence history)
type Repository interface {
	Save(ctx context.Context, e *HistoryEntry) error
	// List returns entries within f ordered by date desc, id desc
	List(ctx context.Context, f HistoryFilter) ([]HistoryEntry, error)
}

// ImageArchive port (interface untuk penyimpanan gambar upload)
type ImageArchive interface {
	Put(ctx context.Context, key string, img Image) (string, error)
}
