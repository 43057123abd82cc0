package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	return &sns.PublishOutput{}, f.err
}

func TestMetricsClient(t *testing.T) {
	t.Run("disabled client sends nothing", func(t *testing.T) {
		cw := &fakeCloudWatch{}
		m := &MetricsClient{client: cw, namespace: "PuntoDeVenta"}

		require.NoError(t, m.RecordCount(context.Background(), MetricSalesCompleted, nil))
		assert.Empty(t, cw.inputs)
		assert.False(t, m.IsEnabled())
	})

	t.Run("latency is recorded in milliseconds", func(t *testing.T) {
		cw := &fakeCloudWatch{}
		m := &MetricsClient{client: cw, namespace: "PuntoDeVenta", enabled: true}

		err := m.RecordLatency(context.Background(), MetricCheckoutLatency, 1500*time.Millisecond, map[string]string{"Mode": "sale"})

		require.NoError(t, err)
		require.Len(t, cw.inputs, 1)
		datum := cw.inputs[0].MetricData[0]
		assert.Equal(t, "PuntoDeVenta", *cw.inputs[0].Namespace)
		assert.Equal(t, MetricCheckoutLatency, *datum.MetricName)
		assert.Equal(t, 1500.0, *datum.Value)
		assert.Equal(t, types.StandardUnitMilliseconds, datum.Unit)
		require.Len(t, datum.Dimensions, 1)
		assert.Equal(t, "Mode", *datum.Dimensions[0].Name)
	})
}

func TestSNSClient_Publish(t *testing.T) {
	api := &fakeSNS{}
	c := &SNSClient{client: api}

	assert.Error(t, c.Publish(context.Background(), "", []byte("{}")))

	require.NoError(t, c.Publish(context.Background(), "arn:aws:sns:us-east-1:000000000000:pos-sales", []byte(`{"type":"sale.completed"}`)))
	assert.Equal(t, `{"type":"sale.completed"}`, *api.input.Message)

	api.err = errors.New("throttled")
	err := c.Publish(context.Background(), "arn:aws:sns:us-east-1:000000000000:pos-sales", []byte("{}"))
	assert.ErrorContains(t, err, "throttled")
}

type fakeLogs struct {
	groupErr error
	streams  []string
	events   []string
	putErr   error
}

func (f *fakeLogs) CreateLogGroup(ctx context.Context, in *cloudwatchlogs.CreateLogGroupInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	return &cloudwatchlogs.CreateLogGroupOutput{}, f.groupErr
}

func (f *fakeLogs) CreateLogStream(ctx context.Context, in *cloudwatchlogs.CreateLogStreamInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	f.streams = append(f.streams, *in.LogStreamName)
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (f *fakeLogs) PutLogEvents(ctx context.Context, in *cloudwatchlogs.PutLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	for _, e := range in.LogEvents {
		f.events = append(f.events, *e.Message)
	}
	return &cloudwatchlogs.PutLogEventsOutput{}, f.putErr
}

func TestLogsWriter(t *testing.T) {
	t.Run("existing group is reused and lines are shipped", func(t *testing.T) {
		logs := &fakeLogs{groupErr: &logtypes.ResourceAlreadyExistsException{}}

		w, err := newLogsWriter(context.Background(), logs, "", "pos-terminal")
		require.NoError(t, err)
		assert.Equal(t, "/pos/terminal", w.group)
		require.Len(t, logs.streams, 1)
		assert.Equal(t, w.Stream(), logs.streams[0])

		n, err := w.Write([]byte("{\"msg\":\"Sale completed\"}\n"))
		require.NoError(t, err)
		assert.Equal(t, 25, n)
		assert.Equal(t, []string{`{"msg":"Sale completed"}`}, logs.events)
	})

	t.Run("delivery errors do not fail the write", func(t *testing.T) {
		logs := &fakeLogs{putErr: errors.New("throttled")}
		w, err := newLogsWriter(context.Background(), logs, "/pos/test", "pos-terminal")
		require.NoError(t, err)

		_, err = w.Write([]byte("line\n"))
		assert.NoError(t, err)
	})

	t.Run("group creation failure", func(t *testing.T) {
		_, err := newLogsWriter(context.Background(), &fakeLogs{groupErr: errors.New("access denied")}, "/pos/test", "pos-terminal")
		assert.Error(t, err)
	})
}

type fakeSecrets struct {
	calls  int
	values map[string]string
}

func (f *fakeSecrets) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	v, ok := f.values[*in.SecretId]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: &v}, nil
}

func TestSecretsClient_Caches(t *testing.T) {
	api := &fakeSecrets{values: map[string]string{"pos-terminal/REDIS_URL": "redis://cache:6379/0"}}
	s := &SecretsClient{client: api, cache: map[string]string{}}

	for i := 0; i < 2; i++ {
		v, err := s.GetSecret(context.Background(), "pos-terminal/REDIS_URL")
		require.NoError(t, err)
		assert.Equal(t, "redis://cache:6379/0", v)
	}
	assert.Equal(t, 1, api.calls)

	_, err := s.GetSecret(context.Background(), "pos-terminal/missing")
	assert.Error(t, err)
}
