package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tenet/config"
)

// MongoStore keeps every nesting level in a flat collection: the document's
// full path is its _id and the parent collection path is kept in _parent so
// subcollections can be listed with a single filter.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// Connect dials MongoDB from AppConfig and installs the global Docs handle.
func Connect(ctx context.Context) error {
	if config.AppConfig == nil {
		return fmt.Errorf("AppConfig is not loaded")
	}
	conf := config.AppConfig.Mongo
	uri := fmt.Sprintf("mongodb://%s:%d/?directConnection=true", conf.Host, conf.Port)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("error connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb cannot be reached after connecting: %w", err)
	}

	Docs = NewMongoStore(client.Database(conf.Database))
	return nil
}

func (m *MongoStore) Create(ctx context.Context, collection string, fields Doc) (string, error) {
	if _, err := splitCollectionPath(collection); err != nil {
		return "", err
	}
	id := primitive.NewObjectID().Hex()
	if err := m.Set(ctx, collection+"/"+id, fields, false); err != nil {
		return "", err
	}
	return id, nil
}

func (m *MongoStore) Set(ctx context.Context, path string, fields Doc, merge bool) error {
	segs, err := splitDocPath(path)
	if err != nil {
		return err
	}
	coll := m.db.Collection(collectionName(segs))
	parent := strings.Join(segs[:len(segs)-1], "/")
	filter := bson.M{"_id": path}

	if !merge {
		doc := bson.M{"_id": path, "_parent": parent}
		for k, v := range fields {
			doc[k] = resolveForInsert(v)
		}
		opts := options.Replace().SetUpsert(true)
		_, err := coll.ReplaceOne(ctx, filter, doc, opts)
		return err
	}

	update := buildUpdate(fields)
	update["$setOnInsert"] = bson.M{"_parent": parent}
	opts := options.Update().SetUpsert(true)
	_, err = coll.UpdateOne(ctx, filter, update, opts)
	return err
}

func (m *MongoStore) Update(ctx context.Context, path string, fields Doc) error {
	segs, err := splitDocPath(path)
	if err != nil {
		return err
	}
	coll := m.db.Collection(collectionName(segs))
	res, err := coll.UpdateOne(ctx, bson.M{"_id": path}, buildUpdate(fields))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) Get(ctx context.Context, path string) (Doc, error) {
	segs, err := splitDocPath(path)
	if err != nil {
		return nil, err
	}
	coll := m.db.Collection(collectionName(segs))

	var raw bson.M
	if err := coll.FindOne(ctx, bson.M{"_id": path}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return fromBSON(raw, segs[len(segs)-1]), nil
}

func (m *MongoStore) List(ctx context.Context, collection string, orderBy string, desc bool, limit int) ([]Doc, error) {
	segs, err := splitCollectionPath(collection)
	if err != nil {
		return nil, err
	}
	coll := m.db.Collection(collectionName(segs))

	filter := bson.M{"_parent": collection}
	dir := 1
	if desc {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: orderBy, Value: dir}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []Doc
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		path, _ := raw["_id"].(string)
		docs = append(docs, fromBSON(raw, lastSegment(path)))
	}
	return docs, cur.Err()
}

func (m *MongoStore) Delete(ctx context.Context, path string) error {
	segs, err := splitDocPath(path)
	if err != nil {
		return err
	}
	coll := m.db.Collection(collectionName(segs))
	_, err = coll.DeleteOne(ctx, bson.M{"_id": path})
	return err
}

// buildUpdate translates sentinel field values into their Mongo operators.
func buildUpdate(fields Doc) bson.M {
	set := bson.M{}
	inc := bson.M{}
	now := bson.M{}
	for k, v := range fields {
		switch sv := v.(type) {
		case incrementValue:
			inc[k] = sv.Delta
		case serverTimestamp:
			now[k] = true
		default:
			set[k] = v
		}
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	if len(now) > 0 {
		update["$currentDate"] = now
	}
	return update
}

// resolveForInsert resolves sentinels for full-document writes, where no
// update operators are available.
func resolveForInsert(v any) any {
	switch sv := v.(type) {
	case incrementValue:
		return sv.Delta
	case serverTimestamp:
		return time.Now().UTC()
	default:
		return v
	}
}

func fromBSON(raw bson.M, id string) Doc {
	doc := Doc{}
	for k, v := range raw {
		if k == "_id" || k == "_parent" {
			continue
		}
		if dt, ok := v.(primitive.DateTime); ok {
			doc[k] = dt.Time().UTC()
			continue
		}
		doc[k] = v
	}
	doc["_id"] = id
	return doc
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
