package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

type cloudWatchLogsAPI interface {
	CreateLogGroup(ctx context.Context, in *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, in *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, in *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// LogsWriter ships each written log line to a CloudWatch Logs stream. It is
// meant as an extra zap sink next to stdout.
type LogsWriter struct {
	mu        sync.Mutex
	client    cloudWatchLogsAPI
	group     string
	stream    string
	sendAfter time.Duration
}

// NewLogsWriter prepares the log group and a fresh stream named after the
// service and start time.
func NewLogsWriter(ctx context.Context, cfg sdkaws.Config, group, serviceName string) (*LogsWriter, error) {
	return newLogsWriter(ctx, cloudwatchlogs.NewFromConfig(cfg), group, serviceName)
}

func newLogsWriter(ctx context.Context, client cloudWatchLogsAPI, group, serviceName string) (*LogsWriter, error) {
	if group == "" {
		group = "/pos/terminal"
	}
	w := &LogsWriter{
		client:    client,
		group:     group,
		stream:    fmt.Sprintf("%s-%d", serviceName, time.Now().Unix()),
		sendAfter: 5 * time.Second,
	}

	_, err := client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{LogGroupName: sdkaws.String(group)})
	var exists *types.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return nil, fmt.Errorf("failed to create log group %s: %w", group, err)
	}
	if _, err := client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  sdkaws.String(group),
		LogStreamName: sdkaws.String(w.stream),
	}); err != nil {
		return nil, fmt.Errorf("failed to create log stream: %w", err)
	}
	return w, nil
}

// Write implements io.Writer. Delivery errors go to stderr and never fail the
// write, so logging keeps working when CloudWatch does not.
func (w *LogsWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg == "" {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), w.sendAfter)
	defer cancel()
	_, err := w.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  sdkaws.String(w.group),
		LogStreamName: sdkaws.String(w.stream),
		LogEvents: []types.InputLogEvent{{
			Message:   sdkaws.String(msg),
			Timestamp: sdkaws.Int64(time.Now().UnixMilli()),
		}},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "CloudWatch Logs write error: %v\n", err)
	}
	return len(p), nil
}

// Stream is the name of the log stream this writer appends to.
func (w *LogsWriter) Stream() string { return w.stream }
