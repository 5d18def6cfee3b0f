package meshsplit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/meshsplit/pkg/math"
)

func splitPlane(t *testing.T, opts ...Option) (*SourceMesh, []SubMesh) {
	t.Helper()
	positions, indices := planeMesh(12, 5)
	src := buildSource(t, fullLayout(), positions, indices)

	params := DefaultParameters()
	params.GridSize = 16
	out, err := Split(context.Background(), src, params, opts...)
	require.NoError(t, err)
	return src, out
}

func triangleSignature(p0, p1, p2 math.Vec3) string {
	return fmt.Sprint(p0, p1, p2)
}

func TestSplitConservesTriangles(t *testing.T) {
	src, out := splitPlane(t)
	require.NotEmpty(t, out)

	want := make(map[string]int)
	for i := 0; i < len(src.Indices); i += 3 {
		p := src.Positions
		want[triangleSignature(p[src.Indices[i]], p[src.Indices[i+1]], p[src.Indices[i+2]])]++
	}

	got := make(map[string]int)
	total := 0
	for _, m := range out {
		idx := m.Indices()
		require.Zero(t, len(idx)%3)
		for i := 0; i < len(idx); i += 3 {
			got[triangleSignature(m.Position(int(idx[i])), m.Position(int(idx[i+1])), m.Position(int(idx[i+2])))]++
		}
		total += m.TriangleCount()
	}

	assert.Equal(t, src.TriangleCount(), total)
	assert.Equal(t, want, got)
}

func TestSplitPreservesEveryChannel(t *testing.T) {
	src, out := splitPlane(t)
	params := DefaultParameters()
	params.GridSize = 16

	buckets, err := Bucketize(src.Indices, src.Positions, params.GridSize, params.SplitAxes)
	require.NoError(t, err)
	require.Len(t, out, len(buckets))

	for k, m := range out {
		require.Equal(t, buckets[k].Key, m.Key)
		assert.Equal(t, src.Layout, m.Layout)
		assert.Equal(t, src.Stride(), m.Stride())
		assert.Equal(t, len(buckets[k].Indices), m.VertexCount)

		for slot, s := range buckets[k].Indices {
			for _, d := range src.Layout.Attributes {
				want, ok := src.Layout.Decode(src.VertexBuffer, int(s), d.Attribute)
				require.True(t, ok)
				got, ok := m.Layout.Decode(m.VertexBuffer, slot, d.Attribute)
				require.True(t, ok)
				assert.Equal(t, want, got, "mesh %s slot %d channel %s", m.Key, slot, d.Attribute)
			}
		}
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	_, first := splitPlane(t, WithWorkers(1))
	for _, opts := range [][]Option{
		{WithWorkers(1)},
		{WithWorkers(8), WithChunkSize(1)},
		{WithWorkers(3), WithChunkSize(5)},
		{},
	} {
		_, again := splitPlane(t, opts...)
		require.Equal(t, len(first), len(again))
		for i := range first {
			assert.Equal(t, first[i].Key, again[i].Key)
			assert.True(t, bytes.Equal(first[i].VertexBuffer, again[i].VertexBuffer))
			assert.True(t, bytes.Equal(first[i].IndexBuffer, again[i].IndexBuffer))
			assert.Equal(t, first[i].Bounds, again[i].Bounds)
		}
	}
}

func TestSplitBoundsAreTight(t *testing.T) {
	_, out := splitPlane(t)
	for _, m := range out {
		lo := m.Position(0)
		hi := lo
		for i := 0; i < m.VertexCount; i++ {
			p := m.Position(i)
			assert.True(t, m.Bounds.Contains(p), "%s does not contain %v", m.Key, p)
			lo = lo.Min(p)
			hi = hi.Max(p)
		}
		assert.Equal(t, lo, m.Bounds.Min)
		assert.Equal(t, hi, m.Bounds.Max)
	}
}

func TestSplitOutputMetadata(t *testing.T) {
	_, out := splitPlane(t)
	seen := make(map[GridKey]bool)
	for i, m := range out {
		assert.False(t, seen[m.Key], "duplicate key %s", m.Key)
		seen[m.Key] = true
		if i > 0 {
			assert.Negative(t, out[i-1].Key.Compare(m.Key))
		}
		assert.Equal(t, "SubMesh "+m.Key.String(), m.Name)
		assert.Equal(t, IndexUInt16, m.IndexFormat)
		assert.Positive(t, m.TriangleCount())
		require.Len(t, m.SubMeshes, 1)
		assert.Equal(t, m.IndexCount(), m.SubMeshes[0].IndexCount)
	}
}

func TestSplitDoesNotAliasSource(t *testing.T) {
	src, out := splitPlane(t)

	saved := make([][]byte, len(out))
	for i, m := range out {
		saved[i] = bytes.Clone(m.VertexBuffer)
	}
	for i := range src.VertexBuffer {
		src.VertexBuffer[i] = 0xFF
	}
	for i, m := range out {
		assert.Equal(t, saved[i], m.VertexBuffer)
	}
}

func TestSplitSingleAxis(t *testing.T) {
	positions, indices := soup(
		math.Vec3{X: 0, Y: 0, Z: 0},
		math.Vec3{X: 0, Y: 0, Z: 100},
		math.Vec3{X: 40, Y: 0, Z: -100},
	)
	src := buildSource(t, positionOnlyLayout(), positions, indices)

	params := DefaultParameters()
	params.GridSize = 20
	params.SplitAxes = Axes{X: true}
	out, err := Split(context.Background(), src, params)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, GridKey{0, 0, 0}, out[0].Key)
	assert.Equal(t, 2, out[0].TriangleCount())
	assert.Equal(t, GridKey{40, 0, 0}, out[1].Key)
	assert.Equal(t, 1, out[1].TriangleCount())
}

func TestSplitEmptyMesh(t *testing.T) {
	src := buildSource(t, positionOnlyLayout(), nil, nil)
	out, err := Split(context.Background(), src, DefaultParameters())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSplitRejectsBadInput(t *testing.T) {
	positions, indices := soup(math.Vec3{})

	tests := []struct {
		name    string
		mutate  func(*SourceMesh)
		wantErr error
	}{
		{"partial triangle", func(m *SourceMesh) { m.Indices = m.Indices[:2] }, ErrInvalidSourceMesh},
		{"index out of range", func(m *SourceMesh) { m.Indices[1] = 3 }, ErrInvalidSourceMesh},
		{"short buffer", func(m *SourceMesh) { m.VertexBuffer = m.VertexBuffer[:10] }, ErrInvalidSourceMesh},
		{"position count", func(m *SourceMesh) { m.Positions = m.Positions[:1] }, ErrInvalidSourceMesh},
		{"stride mismatch", func(m *SourceMesh) { m.Layout.Stride = 16 }, ErrContractViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := buildSource(t, positionOnlyLayout(), positions, append([]uint32(nil), indices...))
			tt.mutate(src)
			out, err := Split(context.Background(), src, DefaultParameters())
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.wantErr)

			var se *SplitError
			assert.True(t, errors.As(err, &se))
		})
	}
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	p := DefaultParameters()
	p.GridSize = 0
	_, err := New(p)
	assert.ErrorIs(t, err, ErrInvalidGridSize)

	_, err = New(DefaultParameters(), WithWorkers(-1))
	assert.ErrorIs(t, err, ErrInvalidWorkers)

	_, err = New(DefaultParameters(), WithChunkSize(-1))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestSplitCancelled(t *testing.T) {
	positions, indices := planeMesh(4, 10)
	src := buildSource(t, positionOnlyLayout(), positions, indices)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := Split(ctx, src, DefaultParameters())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingTracer struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTracer) Start(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "start "+name)
}

func (r *recordingTracer) Stop(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "stop "+name)
}

func TestSplitReportsSpansAndLogs(t *testing.T) {
	tracer := &recordingTracer{}
	core, logs := observer.New(zap.DebugLevel)

	_, out := splitPlane(t, WithTracer(tracer), WithLogger(zap.New(core)))

	assert.Equal(t, []string{
		"start " + SpanBucketize, "stop " + SpanBucketize,
		"start " + SpanBuild, "stop " + SpanBuild,
	}, tracer.events)

	assert.Equal(t, len(fullLayout().Attributes), logs.FilterMessage("vertex attribute").Len())
	summary := logs.FilterMessage("mesh split").All()
	require.Len(t, summary, 1)
	assert.EqualValues(t, len(out), summary[0].ContextMap()["buckets"])
}
