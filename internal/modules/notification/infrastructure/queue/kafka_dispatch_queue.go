package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/infrastructure/mq"
)

// KafkaDispatchQueue 把推送任务发布到 Kafka，由 DispatchConsumerWorker 消费
type KafkaDispatchQueue struct {
	publisher mq.Publisher
	topic     string
}

func NewKafkaDispatchQueue(publisher mq.Publisher, topic string) *KafkaDispatchQueue {
	return &KafkaDispatchQueue{publisher: publisher, topic: topic}
}

func (q *KafkaDispatchQueue) Enqueue(ctx context.Context, job *entity.DispatchJob) error {
	if job == nil {
		return nil
	}
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal dispatch job: %w", err)
	}
	_, err = q.publisher.Publish(ctx, mq.Message{
		Topic: q.topic,
		Key:   []byte(strconv.FormatInt(job.NotificationId, 10)),
		Value: b,
		Headers: map[string]string{
			mq.HeaderJobID:    job.JobId,
			mq.HeaderCategory: job.Category,
		},
	})
	return err
}

func (q *KafkaDispatchQueue) Close() error {
	return q.publisher.Close()
}
