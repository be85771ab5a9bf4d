package export

import (
	"context"
	stderrors "errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/arbor/internal/errors"
	"github.com/vango-dev/arbor/pkg/element"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{ETag: aws.String(`"etag-1"`)}, nil
}

func TestExportElement(t *testing.T) {
	fake := &fakeS3{}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	exp := NewS3Exporter(fake, "bucket", "site", WithTitle("Demo"), WithClock(func() time.Time { return at }))

	res, err := exp.ExportElement(context.Background(), "/about", element.New("p", nil, "hello"))
	require.NoError(t, err)
	require.Equal(t, "site/about.html", res.Key)
	require.Equal(t, "s3://bucket/site/about.html", res.URI())
	require.Equal(t, `"etag-1"`, res.ETag)

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	require.Equal(t, "bucket", aws.ToString(in.Bucket))
	require.Equal(t, "text/html; charset=utf-8", aws.ToString(in.ContentType))
	require.Equal(t, "2026-01-02T03:04:05Z", in.Metadata["rendered-at"])
	require.Contains(t, fake.bodies[0], "<title>Demo</title>")
	require.Contains(t, fake.bodies[0], "<p>hello</p>")
	require.Equal(t, len(fake.bodies[0]), res.Size)
}

func TestKey(t *testing.T) {
	exp := NewS3Exporter(&fakeS3{}, "b", "")
	require.Equal(t, "index.html", exp.Key(""))
	require.Equal(t, "index.html", exp.Key("/"))
	require.Equal(t, "docs/intro.html", exp.Key("docs/intro.html"))
}

func TestExportErrors(t *testing.T) {
	_, err := NewS3Exporter(&fakeS3{}, "", "x").Export(context.Background(), "a", "b")
	require.True(t, errors.HasCode(err, "E060"))

	boom := stderrors.New("access denied")
	_, err = NewS3Exporter(&fakeS3{err: boom}, "b", "").Export(context.Background(), "a", "b")
	require.True(t, errors.HasCode(err, "E061"))
	require.ErrorIs(t, err, boom)
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	_, err := envCredentials().Retrieve(context.Background())
	require.Error(t, err)

	t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_SESSION_TOKEN", "tok")
	creds, err := envCredentials().Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKID", creds.AccessKeyID)
	require.Equal(t, "tok", creds.SessionToken)

	client := NewClient(ClientConfig{Region: "eu-west-1", Endpoint: "http://localhost:9000"})
	require.Equal(t, "eu-west-1", client.Options().Region)
	require.True(t, client.Options().UsePathStyle)
}
