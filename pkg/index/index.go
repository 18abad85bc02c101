package index

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"docqa-be/pkg/document"
	"docqa-be/pkg/relevance"
	"docqa-be/pkg/utils"

	"github.com/philippgille/chromem-go"
)

const collectionName = "document"

// Embedders holds the embedding funcs for indexing and for querying. Some
// backends embed queries differently from documents; Query may be nil.
type Embedders struct {
	Document chromem.EmbeddingFunc
	Query    chromem.EmbeddingFunc
}

// Meta is persisted next to the serialized index.
type Meta struct {
	Document     string    `json:"document"`
	Fingerprint  string    `json:"fingerprint"`
	Chunks       int       `json:"chunks"`
	ChunkSize    int       `json:"chunk_size"`
	ChunkOverlap int       `json:"chunk_overlap"`
	CreatedAt    time.Time `json:"created_at"`
}

// Index is a searchable vector index over the chunks of one document.
type Index struct {
	db    *chromem.DB
	col   *chromem.Collection
	query chromem.EmbeddingFunc
	Meta  Meta
}

func (i *Index) Count() int {
	return i.col.Count()
}

// Query returns up to topK passages ordered by cosine similarity.
func (i *Index) Query(ctx context.Context, text string, topK int) ([]relevance.Passage, error) {
	n := i.col.Count()
	if n == 0 {
		return nil, nil
	}
	if topK <= 0 || topK > n {
		topK = n
	}

	var (
		results []chromem.Result
		err     error
	)
	if i.query != nil {
		vec, embedErr := i.query(ctx, text)
		if embedErr != nil {
			return nil, fmt.Errorf("embed query: %w", embedErr)
		}
		results, err = i.col.QueryEmbedding(ctx, vec, topK, nil, nil)
	} else {
		results, err = i.col.Query(ctx, text, topK, nil, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	passages := make([]relevance.Passage, 0, len(results))
	for _, r := range results {
		passages = append(passages, relevance.Passage{
			ID:       r.ID,
			Content:  r.Content,
			Score:    relevance.Score(float64(r.Similarity)),
			Metadata: r.Metadata,
		})
	}
	return passages, nil
}

type Builder struct {
	embed        Embedders
	chunkSize    int
	chunkOverlap int
}

func NewBuilder(embed Embedders, chunkSize, chunkOverlap int) *Builder {
	return &Builder{embed: embed, chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Build loads the file at path, chunks it and embeds every chunk.
func (b *Builder) Build(ctx context.Context, path string) (*Index, error) {
	doc, err := document.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return b.BuildFromText(ctx, doc.Name, doc.Content)
}

func (b *Builder) BuildFromText(ctx context.Context, name, text string) (*Index, error) {
	chunks := utils.SplitText(text, b.chunkSize, b.chunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", name, document.ErrEmptyDocument)
	}

	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, map[string]string{"document": name}, b.embed.Document)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("%s-%d", Key(name), i),
			Content: chunk,
			Metadata: map[string]string{
				"source": name,
				"chunk":  strconv.Itoa(i),
			},
		}
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("embed chunks of %s: %w", name, err)
	}

	return &Index{
		db:    db,
		col:   col,
		query: b.embed.Query,
		Meta: Meta{
			Document:     name,
			Chunks:       len(chunks),
			ChunkSize:    b.chunkSize,
			ChunkOverlap: b.chunkOverlap,
			CreatedAt:    time.Now().UTC(),
		},
	}, nil
}
