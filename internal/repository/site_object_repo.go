package repository

import (
	"context"
	"errors"
	"io"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type SiteObjectRepository interface {
	Get(ctx context.Context, key string) (*entity.SiteObject, error)
}

type s3SiteObjectRepository struct {
	client *s3.Client
	bucket string
}

func NewSiteObjectRepository(client *s3.Client, bucket string) SiteObjectRepository {
	return &s3SiteObjectRepository{client: client, bucket: bucket}
}

// Get returns nil without error when the bucket has no such object.
func (r *s3SiteObjectRepository) Get(ctx context.Context, key string) (*entity.SiteObject, error) {
	output, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, nil
		}
		return nil, err
	}
	defer output.Body.Close()

	body, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, err
	}
	return &entity.SiteObject{
		Key:          key,
		Body:         body,
		ContentType:  aws.ToString(output.ContentType),
		ETag:         aws.ToString(output.ETag),
		LastModified: output.LastModified,
	}, nil
}
