package repo

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/xxxsen/codeman/internal/model"
	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
)

type templateDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Tags        []string           `bson:"tags"`
	CodeURL     string             `bson:"codeurl"`
	Language    string             `bson:"language,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *templateDocument) toModel() *model.Template {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &model.Template{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Tags:        tags,
		CodeURL:     d.CodeURL,
		Language:    d.Language,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoTemplateRepo stores templates in a MongoDB collection keyed by ObjectID.
type MongoTemplateRepo struct {
	col *mongo.Collection
}

func NewMongoTemplateRepo(ctx context.Context, col *mongo.Collection) *MongoTemplateRepo {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		logutil.GetLogger(ctx).Warn("create templates index failed", zap.Error(err))
	}
	return &MongoTemplateRepo{col: col}
}

func (r *MongoTemplateRepo) Create(ctx context.Context, tpl *model.Template) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := templateDocument{
		ID:          primitive.NewObjectID(),
		Title:       tpl.Title,
		Description: tpl.Description,
		Tags:        cloneTags(tpl.Tags),
		CodeURL:     tpl.CodeURL,
		Language:    tpl.Language,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return err
	}
	tpl.ID = doc.ID.Hex()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	return nil
}

func (r *MongoTemplateRepo) GetByID(ctx context.Context, id string) (*model.Template, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, appErr.ErrNotFound
	}
	var doc templateDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *MongoTemplateRepo) List(ctx context.Context) ([]model.Template, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	items := make([]model.Template, 0)
	for cur.Next(ctx) {
		var doc templateDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, *doc.toModel())
	}
	return items, cur.Err()
}

func (r *MongoTemplateRepo) Update(ctx context.Context, id string, patch model.TemplatePatch) (*model.Template, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, appErr.ErrNotFound
	}
	set := bson.M{
		"title":       patch.Title,
		"description": patch.Description,
		"tags":        cloneTags(patch.Tags),
		"updatedAt":   time.Now().UTC().Truncate(time.Millisecond),
	}
	if patch.CodeURL != "" {
		set["codeurl"] = patch.CodeURL
		set["language"] = patch.Language
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc templateDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *MongoTemplateRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return appErr.ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *MongoTemplateRepo) ListCodeURLs(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"codeurl": 1})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	urls := make([]string, 0)
	for cur.Next(ctx) {
		var doc struct {
			CodeURL string `bson:"codeurl"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		urls = append(urls, doc.CodeURL)
	}
	return urls, cur.Err()
}
