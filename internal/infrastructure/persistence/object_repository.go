package persistence

import (
	"log"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"golang.org/x/exp/slices"

	"github.com/vitrinehq/vitrine/internal/config"
	"github.com/vitrinehq/vitrine/internal/domain/entity"
)

type ObjectRepository struct {
	db        *dynamodb.DynamoDB
	tableName string
}

func NewObjectRepository(sess *session.Session, cfg *config.StorageConfig) *ObjectRepository {
	return &ObjectRepository{dynamodb.New(sess), cfg.TableName}
}

// Get the object by its storage key.
func (r *ObjectRepository) GetByKey(key string) (*entity.Object, error) {
	out, err := r.db.GetItem(&dynamodb.GetItemInput{
		Key:       map[string]*dynamodb.AttributeValue{"Key": {S: aws.String(key)}},
		TableName: aws.String(r.tableName),
	})
	if err != nil || len(out.Item) == 0 {
		return nil, err
	}
	var object *entity.Object
	err = dynamodbattribute.UnmarshalMap(out.Item, &object)
	return object, err
}

// Save an entity to the persistence.
func (r *ObjectRepository) Save(object *entity.Object) error {
	av, err := dynamodbattribute.MarshalMap(object)
	if err != nil {
		return err
	}
	_, err = r.db.PutItem(&dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		log.Printf("failed to save persistence: %v", av)
	}
	return err
}

// List the stored objects, most recent first.
func (r *ObjectRepository) List() ([]*entity.Object, error) {
	out, err := r.db.Scan(&dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	var objects []*entity.Object
	if err := dynamodbattribute.UnmarshalListOfMaps(out.Items, &objects); err != nil {
		return nil, err
	}
	slices.SortFunc(objects, func(a, b *entity.Object) int {
		return int(b.CreatedAt - a.CreatedAt)
	})
	return objects, nil
}
