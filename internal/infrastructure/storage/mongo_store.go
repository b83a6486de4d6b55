// Package storage adapts the mongo document store to the ArticleStore port.
package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"news-ingest/internal/domain"
	"news-ingest/internal/ports"
)

type seoDoc struct {
	Title       string   `bson:"title"`
	Description string   `bson:"description"`
	Keywords    []string `bson:"keywords,omitempty"`
	Canonical   string   `bson:"canonical"`
}

type imageDoc struct {
	URL         string `bson:"url"`
	Alt         string `bson:"alt"`
	Caption     string `bson:"caption"`
	Attribution string `bson:"attribution"`
}

type articleDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Slug         string             `bson:"slug"`
	Excerpt      string             `bson:"excerpt"`
	Content      string             `bson:"content,omitempty"`
	Category     string             `bson:"category"`
	Source       string             `bson:"source"`
	CanonicalURL string             `bson:"canonical_url"`
	Tags         []string           `bson:"tags,omitempty"`
	SEO          seoDoc             `bson:"seo"`
	Image        *imageDoc          `bson:"image,omitempty"`
	PublishedAt  time.Time          `bson:"published_at"`
	CreatedAt    time.Time          `bson:"created_at"`
}

// MongoStore persists candidate articles; the unique slug index is the last
// line of defense when two cycles race the dedup gate.
type MongoStore struct {
	coll *mongo.Collection
}

var _ ports.ArticleStore = (*MongoStore)(nil)

// NewMongoStore wires a collection handle.
func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{coll: client.Database(database).Collection(collection)}
}

// EnsureIndexes creates the unique slug index plus the dedup lookup indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "title", Value: 1}}},
		{Keys: bson.D{{Key: "canonical_url", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// SlugExists reports whether any persisted article holds the slug.
func (s *MongoStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count by slug: %w", err)
	}
	return count > 0, nil
}

// ExistsByTitleOrURL runs the OR-matched dedup lookup.
func (s *MongoStore) ExistsByTitleOrURL(ctx context.Context, title, canonicalURL string) (bool, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"title": title},
		bson.M{"canonical_url": canonicalURL},
	}}

	count, err := s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count by title/url: %w", err)
	}
	return count > 0, nil
}

// Insert writes one article; a unique-index violation surfaces as
// domain.ErrDuplicateKey so the pipeline can count it as a duplicate.
func (s *MongoStore) Insert(ctx context.Context, article domain.CandidateArticle) error {
	doc := articleDoc{
		Title:        article.Title,
		Slug:         article.Slug,
		Excerpt:      article.Excerpt,
		Content:      article.Content,
		Category:     string(article.Category),
		Source:       article.Source,
		CanonicalURL: article.CanonicalURL,
		Tags:         article.Tags,
		SEO: seoDoc{
			Title:       article.SEO.Title,
			Description: article.SEO.Description,
			Keywords:    article.SEO.Keywords,
			Canonical:   article.SEO.Canonical,
		},
		PublishedAt: article.PublishedAt,
		CreatedAt:   time.Now().UTC(),
	}
	if article.Image != nil {
		doc.Image = &imageDoc{
			URL:         article.Image.URL,
			Alt:         article.Image.Alt,
			Caption:     article.Image.Caption,
			Attribution: article.Image.Attribution,
		}
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: slug %s", domain.ErrDuplicateKey, article.Slug)
		}
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// FindWithoutImage lists the newest persisted articles still lacking a
// featured image, for the backfill pass of the combined cycle.
func (s *MongoStore) FindWithoutImage(ctx context.Context, limit int) ([]domain.StoredArticleRef, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"title": 1, "slug": 1})

	cur, err := s.coll.Find(ctx, bson.M{"image": bson.M{"$exists": false}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find without image: %w", err)
	}
	defer cur.Close(ctx)

	var refs []domain.StoredArticleRef
	for cur.Next(ctx) {
		var doc articleDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode article: %w", err)
		}
		refs = append(refs, domain.StoredArticleRef{
			ID:    doc.ID.Hex(),
			Title: doc.Title,
			Slug:  doc.Slug,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}

	return refs, nil
}

// SetImage attaches a late-resolved featured image to a persisted article.
func (s *MongoStore) SetImage(ctx context.Context, id string, image domain.ImageDescriptor) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid article id %q: %w", id, err)
	}

	update := bson.M{"$set": bson.M{"image": imageDoc{
		URL:         image.URL,
		Alt:         image.Alt,
		Caption:     image.Caption,
		Attribution: image.Attribution,
	}}}

	if _, err := s.coll.UpdateByID(ctx, oid, update); err != nil {
		return fmt.Errorf("set image on %s: %w", id, err)
	}
	return nil
}
