package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	ferrors "github.com/azybler/flowmap/pkg/errors"
)

// DefaultMongoDatabase is used when the connection string names none.
const DefaultMongoDatabase = "flowmap"

const edgeUseCollection = "edge_use"

// Mongo stores rows as GeoJSON documents with a 2dsphere index.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type lineDoc struct {
	Type        string       `bson:"type"`
	Coordinates [][2]float64 `bson:"coordinates"`
}

type rowDoc struct {
	RunID string  `bson:"run_id"`
	Count int     `bson:"count"`
	Geom  lineDoc `bson:"geom"`
}

// NewMongo connects to uri and prepares the edge_use collection in
// database (DefaultMongoDatabase when empty).
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, ferrors.Wrap(ferrors.CodePersistence, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, ferrors.Wrap(ferrors.CodePersistence, err, "ping mongo")
	}

	coll := client.Database(database).Collection(edgeUseCollection)
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "geom", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "run_id", Value: 1}, {Key: "count", Value: 1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		_ = client.Disconnect(ctx)
		return nil, ferrors.Wrap(ferrors.CodePersistence, err, "create indexes")
	}
	return &Mongo{client: client, coll: coll}, nil
}

// Save inserts every row inside one transaction. Transactions need a
// replica set or sharded cluster.
func (m *Mongo) Save(ctx context.Context, runID uuid.UUID, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]any, len(rows))
	for i, r := range rows {
		docs[i] = toDoc(runID, r)
	}

	sess, err := m.client.StartSession()
	if err != nil {
		return ferrors.Wrap(ferrors.CodePersistence, err, "start session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return m.coll.InsertMany(sc, docs)
	})
	if err != nil {
		return ferrors.Wrap(ferrors.CodePersistence, err, "save run %s", runID)
	}
	return nil
}

// Load returns the rows of a run ordered by count. A run without rows is
// NOT_FOUND.
func (m *Mongo) Load(ctx context.Context, runID uuid.UUID) ([]Row, error) {
	opts := options.Find().SetSort(bson.D{{Key: "count", Value: 1}})
	cur, err := m.coll.Find(ctx, bson.D{{Key: "run_id", Value: runID.String()}}, opts)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.CodePersistence, err, "load run %s", runID)
	}
	var docs []rowDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, ferrors.Wrap(ferrors.CodePersistence, err, "decode run %s", runID)
	}
	if len(docs) == 0 {
		return nil, ferrors.New(ferrors.CodeNotFound, "no rows for run %s", runID)
	}

	rows := make([]Row, len(docs))
	for i, d := range docs {
		rows[i] = fromDoc(d)
	}
	return rows, nil
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

func toDoc(runID uuid.UUID, r Row) rowDoc {
	coords := make([][2]float64, len(r.Line))
	for i, p := range r.Line {
		coords[i] = [2]float64{p.Lon(), p.Lat()}
	}
	return rowDoc{
		RunID: runID.String(),
		Count: r.Count,
		Geom:  lineDoc{Type: "LineString", Coordinates: coords},
	}
}

func fromDoc(d rowDoc) Row {
	ls := make(orb.LineString, len(d.Geom.Coordinates))
	for i, c := range d.Geom.Coordinates {
		ls[i] = orb.Point{c[0], c[1]}
	}
	return Row{Count: d.Count, Line: ls}
}

var _ Store = (*Mongo)(nil)
