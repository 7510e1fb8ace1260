package todos

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type todoDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     *string            `bson:"title"`
	Completed bool               `bson:"completed"`
}

func (d todoDocument) toTodo() Todo {
	return Todo{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Completed: d.Completed,
	}
}

type MongoRepo struct {
	coll *mongo.Collection
}

func NewMongoRepo(coll *mongo.Collection) *MongoRepo {
	return &MongoRepo{coll: coll}
}

// List returns todos in natural (store-defined) order.
func (r *MongoRepo) List(ctx context.Context) ([]Todo, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find todos: %w", err)
	}

	var docs []todoDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}

	out := make([]Todo, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toTodo())
	}
	return out, nil
}

func (r *MongoRepo) Get(ctx context.Context, id string) (Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return Todo{}, err
	}

	var doc todoDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return Todo{}, notFoundOr(err, "find todo")
	}
	return doc.toTodo(), nil
}

func (r *MongoRepo) Create(ctx context.Context, title *string) (Todo, error) {
	doc := todoDocument{
		ID:        primitive.NewObjectID(),
		Title:     copyString(title),
		Completed: false,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return doc.toTodo(), nil
}

func (r *MongoRepo) Update(ctx context.Context, id string, patch Patch) (Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return Todo{}, err
	}
	if patch.IsEmpty() {
		return r.Get(ctx, id)
	}

	set := bson.M{}
	if patch.Title.Set {
		set["title"] = patch.Title.Value
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc todoDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		return Todo{}, notFoundOr(err, "update todo")
	}
	return doc.toTodo(), nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) (Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return Todo{}, err
	}

	var doc todoDocument
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return Todo{}, notFoundOr(err, "delete todo")
	}
	return doc.toTodo(), nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
