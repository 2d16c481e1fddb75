package s3infra

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-newsletter-signup/internal/config"
)

type mockObjects struct{ mock.Mock }

func (m *mockObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*s3.PutObjectOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPresigner struct{ mock.Mock }

func (m *mockPresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	args := m.Called(ctx, in, opts.Expires)
	if out, _ := args.Get(0).(*v4.PresignedHTTPRequest); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestStore_Upload(t *testing.T) {
	api := &mockObjects{}
	var body string
	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "exports" &&
			aws.ToString(in.Key) == "exports/subscribers.jsonl" &&
			aws.ToString(in.ContentType) == "application/x-ndjson"
	})).Run(func(args mock.Arguments) {
		b, _ := io.ReadAll(args.Get(1).(*s3.PutObjectInput).Body)
		body = string(b)
	}).Return(&s3.PutObjectOutput{}, nil)

	s := &Store{client: api, bucket: "exports"}
	loc, err := s.Upload(context.Background(), "exports/subscribers.jsonl", strings.NewReader("{}\n"), "")

	require.NoError(t, err)
	assert.Equal(t, "s3://exports/exports/subscribers.jsonl", loc)
	assert.Equal(t, "{}\n", body)
	api.AssertExpectations(t)
}

func TestStore_UploadError(t *testing.T) {
	api := &mockObjects{}
	api.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("AccessDenied"))

	s := &Store{client: api, bucket: "exports"}
	_, err := s.Upload(context.Background(), "k", strings.NewReader(""), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3 put object")
}

func TestStore_Upload_PlainHTTPEndpoint(t *testing.T) {
	var (
		mu          sync.Mutex
		method, uri string
		got         []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, uri, got = r.Method, r.URL.Path, b
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), &config.Config{
		AWSRegion:      "us-east-1",
		AWSEndpointURL: srv.URL,
		AWSAccessKeyID: "test",
		AWSSecretKey:   "test",
	})
	require.NoError(t, err)
	s := NewStore(client, "exports")

	// io.MultiReader hides any Seek method of the underlying reader.
	body := io.MultiReader(strings.NewReader("{\"email\":\"a@example.com\"}\n"))
	loc, err := s.Upload(context.Background(), "exports/subscribers.jsonl", body, "")
	require.NoError(t, err)
	assert.Equal(t, "s3://exports/exports/subscribers.jsonl", loc)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/exports/exports/subscribers.jsonl", uri)
	assert.Equal(t, "{\"email\":\"a@example.com\"}\n", string(got))
}

func TestStore_PresignedURL(t *testing.T) {
	p := &mockPresigner{}
	p.On("PresignGetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Key) == "exports/a.jsonl"
	}), 15*time.Minute).Return(&v4.PresignedHTTPRequest{URL: "https://signed.example/a"}, nil)

	s := &Store{presigner: p, bucket: "exports"}
	u, err := s.PresignedURL(context.Background(), "exports/a.jsonl", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/a", u)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "application/x-ndjson", detectContentType("a/B.JSONL"))
	assert.Equal(t, "application/json", detectContentType("a.json"))
	assert.Equal(t, "text/csv", detectContentType("a.csv"))
	assert.Equal(t, "application/octet-stream", detectContentType("a.bin"))
}
