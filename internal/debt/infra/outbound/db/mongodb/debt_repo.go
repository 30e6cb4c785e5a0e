package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	debtDomain "github.com/davicafu/boletolab/internal/debt/domain"
	sharedDomain "github.com/davicafu/boletolab/internal/shared/domain"
)

const duplicateKeyCode = 11000

// DebtRepoMongoDB implementa DebtRepository para MongoDB.
type DebtRepoMongoDB struct {
	client    *mongo.Client
	debtsColl *mongo.Collection
}

var _ debtDomain.DebtRepository = (*DebtRepoMongoDB)(nil)

// NewDebtRepoMongoDB es el constructor del repositorio.
func NewDebtRepoMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*DebtRepoMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	return &DebtRepoMongoDB{
		client:    client,
		debtsColl: client.Database(dbName).Collection("debts"),
	}, nil
}

// EnsureIndexes crea el índice por estado que usa el procesamiento.
func (r *DebtRepoMongoDB) EnsureIndexes(ctx context.Context) error {
	_, err := r.debtsColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: debtDomain.FieldStatus, Value: 1}},
	})
	return err
}

// --- Structs de BSON para el mapeo ---
// Se definen localmente para no "contaminar" el dominio con tags de BSON.

type mongoDebt struct {
	ID           string               `bson:"_id"`
	Name         string               `bson:"name"`
	GovernmentID string               `bson:"government_id"`
	Email        string               `bson:"email"`
	Amount       primitive.Decimal128 `bson:"debt_amount"`
	DueDate      time.Time            `bson:"debt_due_date"`
	Status       string               `bson:"status"`
}

// --- Escrituras masivas ---

// InsertIgnore usa InsertMany no ordenado: los duplicados se descartan y el
// resto del lote se inserta igualmente.
func (r *DebtRepoMongoDB) InsertIgnore(ctx context.Context, debts []*debtDomain.Debt) (int64, error) {
	if len(debts) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(debts))
	for _, d := range debts {
		md, err := toMongoDebt(d)
		if err != nil {
			return 0, err
		}
		docs = append(docs, md)
	}

	_, err := r.debtsColl.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return int64(len(docs)), nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return 0, err
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return 0, err
		}
	}
	return int64(len(docs) - len(bwe.WriteErrors)), nil
}

func (r *DebtRepoMongoDB) MarkProcessed(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	res, err := r.debtsColl.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": raw}, debtDomain.FieldStatus: string(debtDomain.StatusPending)},
		bson.M{"$set": bson.M{debtDomain.FieldStatus: string(debtDomain.StatusProcessed)}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *DebtRepoMongoDB) MarkFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.debtsColl.UpdateOne(ctx,
		bson.M{"_id": id.String(), debtDomain.FieldStatus: string(debtDomain.StatusPending)},
		bson.M{"$set": bson.M{debtDomain.FieldStatus: string(debtDomain.StatusFailed)}},
	)
	return err
}

// --- CRUD ---

func (r *DebtRepoMongoDB) Update(ctx context.Context, id uuid.UUID, upd debtDomain.DebtUpdate) error {
	set, err := updateDocument(upd)
	if err != nil {
		return err
	}
	if len(set) == 0 {
		return debtDomain.ErrEmptyUpdate
	}

	res, err := r.debtsColl.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return debtDomain.ErrDebtNotFound
	}
	return nil
}

func (r *DebtRepoMongoDB) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := r.debtsColl.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return debtDomain.ErrDebtNotFound
	}
	return nil
}

// --- Lectura ---

func (r *DebtRepoMongoDB) GetByID(ctx context.Context, id uuid.UUID) (*debtDomain.Debt, error) {
	var md mongoDebt
	err := r.debtsColl.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&md)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, debtDomain.ErrDebtNotFound
		}
		return nil, err
	}
	return fromMongoDebt(&md)
}

func (r *DebtRepoMongoDB) ListByStatus(ctx context.Context, status debtDomain.Status) ([]*debtDomain.Debt, error) {
	return r.ListByCriteria(ctx, debtDomain.StatusCriteria{Status: status})
}

func (r *DebtRepoMongoDB) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria) ([]*debtDomain.Debt, error) {
	filter, err := criteriaToMongoFilter(criteria)
	if err != nil {
		return nil, err
	}

	cursor, err := r.debtsColl.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var debts []*debtDomain.Debt
	for cursor.Next(ctx) {
		var md mongoDebt
		if err := cursor.Decode(&md); err != nil {
			return nil, err
		}
		d, err := fromMongoDebt(&md)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, cursor.Err()
}

// --- Helpers de Mapeo y Conversión ---

func toMongoDebt(d *debtDomain.Debt) (*mongoDebt, error) {
	amount, err := toDecimal128(d.Amount)
	if err != nil {
		return nil, err
	}
	return &mongoDebt{
		ID: d.ID.String(), Name: d.Name, GovernmentID: d.GovernmentID, Email: d.Email,
		Amount: amount, DueDate: d.DueDate.UTC(), Status: string(d.Status),
	}, nil
}

func fromMongoDebt(md *mongoDebt) (*debtDomain.Debt, error) {
	id, err := uuid.Parse(md.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	amount, err := decimal.NewFromString(md.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("invalid amount in DB: %w", err)
	}
	return &debtDomain.Debt{
		ID: id, Name: md.Name, GovernmentID: md.GovernmentID, Email: md.Email,
		Amount: amount, DueDate: md.DueDate.UTC(), Status: debtDomain.Status(md.Status),
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("amount %s out of range: %w", d, err)
	}
	return v, nil
}

func updateDocument(upd debtDomain.DebtUpdate) (bson.M, error) {
	set := bson.M{}
	if upd.Name.Set {
		set[debtDomain.FieldName] = upd.Name.Value
	}
	if upd.GovernmentID.Set {
		set[debtDomain.FieldGovernmentID] = upd.GovernmentID.Value
	}
	if upd.Email.Set {
		set[debtDomain.FieldEmail] = upd.Email.Value
	}
	if upd.Amount.Set {
		amount, err := toDecimal128(upd.Amount.Value)
		if err != nil {
			return nil, err
		}
		set[debtDomain.FieldAmount] = amount
	}
	if upd.DueDate.Set {
		set[debtDomain.FieldDueDate] = upd.DueDate.Value.UTC()
	}
	if upd.Status.Set {
		set[debtDomain.FieldStatus] = string(upd.Status.Value)
	}
	return set, nil
}

// criteriaToMongoFilter agrupa los operadores por campo: dos condiciones sobre
// debt_amount deben acabar en un único documento {$gte, $lte}.
func criteriaToMongoFilter(criteria sharedDomain.Criteria) (bson.D, error) {
	var fields []string
	ops := map[string]bson.M{}

	for _, c := range sharedDomain.Conditions(criteria) {
		field := c.Field
		if field == debtDomain.FieldID {
			field = "_id"
		}
		if _, seen := ops[field]; !seen {
			fields = append(fields, field)
			ops[field] = bson.M{}
		}

		value := c.Value
		if d, ok := value.(decimal.Decimal); ok {
			dec, err := toDecimal128(d)
			if err != nil {
				return nil, err
			}
			value = dec
		}

		// Mapeo de operadores genéricos a operadores de MongoDB
		switch c.Op {
		case sharedDomain.OpContains:
			ops[field]["$regex"] = regexp.QuoteMeta(fmt.Sprint(value))
			ops[field]["$options"] = "i"
		case sharedDomain.OpGte:
			ops[field]["$gte"] = value
		case sharedDomain.OpLte:
			ops[field]["$lte"] = value
		default:
			ops[field]["$eq"] = value
		}
	}

	filter := bson.D{}
	for _, field := range fields {
		filter = append(filter, bson.E{Key: field, Value: ops[field]})
	}
	return filter, nil
}
