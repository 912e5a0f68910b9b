package pub

import (
	"context"

	"naasprov/internal/ports"
	"naasprov/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSAPI is the subset of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsPub struct{ cli SNSAPI }

func NewSNS(c SNSAPI) ports.Publisher { return &snsPub{cli: c} }

func (s *snsPub) PublishRaw(ctx context.Context, arn string, payload []byte) error {
	_, err := s.cli.Publish(ctx, &sns.PublishInput{
		TopicArn: &arn,
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"content-type": {DataType: aws.String("String"), StringValue: aws.String("application/json")},
			"event-type":   {DataType: aws.String("String"), StringValue: aws.String(QuoteEventType)},
		},
	})
	if err != nil {
		return types.Err(types.ErrUpstream, err, "publish to %s", arn)
	}
	return nil
}
