package ddb

import (
	"context"
	"maps"
	"sync"

	"naasprov/internal/ports"
	"naasprov/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"
)

// maxTransactItems is the DynamoDB limit on items per TransactWriteItems call.
const maxTransactItems = 100

// Store keeps one item per state key under a namespace partition. A Set is a single TransactWriteItems
// call, so it lands entirely or not at all; a Set of more than maxTransactItems keys is rejected.
type Store struct {
	table     string
	namespace string
	cli       *dynamodb.Client

	mu     sync.RWMutex
	values map[string]string
}

type stateItem struct {
	PK    string `dynamodbav:"PK"`
	SK    string `dynamodbav:"SK"`
	Value string `dynamodbav:"value"`
}

func NewStore(ctx context.Context, table, namespace string, cli *dynamodb.Client) (*Store, error) {
	if err := createTableIfNotExists(ctx, cli, table); err != nil {
		return nil, types.Err(types.ErrStorage, err, "")
	}
	s := &Store{
		table:     table,
		namespace: namespace,
		cli:       cli,
		values:    map[string]string{},
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

func (s *Store) Reload(ctx context.Context) error {
	values := map[string]string{}
	p := dynamodb.NewQueryPaginator(s.cli, &dynamodb.QueryInput{
		TableName:              &s.table,
		ConsistentRead:         aws.Bool(true),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":pk": &ddbTypes.AttributeValueMemberS{Value: pkState(s.namespace)},
		},
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return types.Err(types.ErrStorage, err, "query state namespace %s", s.namespace)
		}
		for _, av := range out.Items {
			var it stateItem
			if err := attributevalue.UnmarshalMap(av, &it); err != nil {
				return types.Err(types.ErrStorage, err, "decode state item")
			}
			key, err := parseKey(it.SK)
			if err != nil {
				log.WithError(err).Warn("skipping state item")
				continue
			}
			values[key] = it.Value
		}
	}
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

func (s *Store) Set(ctx context.Context, updates map[string]string) error {
	if len(updates) == 0 {
		return nil
	}
	if len(updates) > maxTransactItems {
		return types.Err(types.ErrStorage, nil, "update of %d keys exceeds the %d item transaction limit", len(updates), maxTransactItems)
	}
	items := make([]ddbTypes.TransactWriteItem, 0, len(updates))
	for k, v := range updates {
		av, err := attributevalue.MarshalMap(stateItem{
			PK:    pkState(s.namespace),
			SK:    skKey(k),
			Value: v,
		})
		if err != nil {
			return types.Err(types.ErrStorage, err, "encode state item %s", k)
		}
		items = append(items, ddbTypes.TransactWriteItem{
			Put: &ddbTypes.Put{TableName: &s.table, Item: av},
		})
	}
	if _, err := s.cli.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		return types.Err(types.ErrStorage, err, "write state namespace %s", s.namespace)
	}
	s.mu.Lock()
	for k, v := range updates {
		s.values[k] = v
	}
	s.mu.Unlock()
	log.WithFields(log.Fields{"table": s.table, "namespace": s.namespace, "items": len(items)}).Debug("ddb state updated")
	return nil
}

var _ ports.StateStore = (*Store)(nil)
