package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/config"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// exerciseStore runs the behaviour every Store implementation shares.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	v, err := store.Get(ctx, types.ProviderGitHub)
	require.NoError(t, err)
	assert.Empty(t, v, "absent handles read as empty")

	require.NoError(t, store.Set(ctx, types.ProviderGitHub, "octocat"))
	require.NoError(t, store.Set(ctx, types.ProviderLinkedIn, "octo-li"))
	require.NoError(t, store.Set(ctx, types.ProviderGitHub, "octocat2"))

	handles, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, types.SocialHandles{GitHub: "octocat2", LinkedIn: "octo-li"}, handles)

	require.NoError(t, store.Set(ctx, types.ProviderLinkedIn, ""))
	v, err = store.Get(ctx, types.ProviderLinkedIn)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clear is idempotent")

	handles, err = Load(ctx, store)
	require.NoError(t, err)
	assert.True(t, handles.IsEmpty())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	exerciseStore(t, NewFileStore(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "clear removes the backing file")
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	ctx := context.Background()

	require.NoError(t, NewFileStore(path).Set(ctx, types.ProviderTwitter, "bird"))

	v, err := NewFileStore(path).Get(ctx, types.ProviderTwitter)
	require.NoError(t, err)
	assert.Equal(t, "bird", v)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"twitter_username": "bird"`)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

	_, err := NewFileStore(path).Get(context.Background(), types.ProviderGitHub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")

	require.NoError(t, NewFileStore(path).Clear(context.Background()), "a corrupt file can still be cleared")
}

func TestSeed(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, Seed(ctx, store, types.SocialHandles{GitHub: " gh ", Twitter: ""}))

	handles, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, types.SocialHandles{GitHub: "gh"}, handles)
}

type failingStore struct{ *MemoryStore }

func (f *failingStore) Get(ctx context.Context, p types.Provider) (string, error) {
	if p == types.ProviderTwitter {
		return "", errors.New("backend down")
	}
	return f.MemoryStore.Get(ctx, p)
}

func TestLoad_PartialFailure(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore()}
	require.NoError(t, store.Set(context.Background(), types.ProviderGitHub, "gh"))

	handles, err := Load(context.Background(), store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twitter_username")
	assert.Equal(t, "gh", handles.GitHub)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, closer, err := Open(ctx, config.Config{CredentialStore: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, closer.Close())

	path := filepath.Join(t.TempDir(), "c.json")
	store, _, err = Open(ctx, config.Config{CredentialStore: config.StoreFile, CredentialPath: path})
	require.NoError(t, err)
	assert.Equal(t, path, store.(*FileStore).Path())

	_, _, err = Open(ctx, config.Config{CredentialStore: "etcd"})
	assert.Error(t, err)
}

func TestFactory_SessionScopes(t *testing.T) {
	ctx := context.Background()

	f, err := NewFactory(ctx, config.Config{CredentialStore: config.StoreMemory})
	require.NoError(t, err)
	defer f.Close()

	a := f.Store("a")
	require.NoError(t, a.Set(ctx, types.ProviderGitHub, "gh-a"))
	assert.Same(t, a, f.Store("a"))

	v, err := f.Store("b").Get(ctx, types.ProviderGitHub)
	require.NoError(t, err)
	assert.Empty(t, v, "sessions do not share handles")
}

func TestSessionPath(t *testing.T) {
	assert.Equal(t, "/tmp/credentials.json", sessionPath("/tmp/credentials.json", "default"))
	assert.Equal(t, "/tmp/credentials.json", sessionPath("/tmp/credentials.json", ""))

	p := sessionPath("/tmp/credentials.json", "ab/c")
	assert.True(t, strings.HasPrefix(p, "/tmp/credentials-ab_c-"), p)
	assert.True(t, strings.HasSuffix(p, ".json"), p)
	assert.Equal(t, p, sessionPath("/tmp/credentials.json", "ab/c"), "paths are stable")

	seen := map[string]string{}
	for _, session := range []string{"ab/c", "ab.c", "ab_c", "AB_C", "ab\\c"} {
		p := sessionPath("/tmp/credentials.json", session)
		if prev, ok := seen[p]; ok {
			t.Fatalf("sessions %q and %q share %s", prev, session, p)
		}
		seen[p] = session
	}

	long := sessionPath("/tmp/credentials.json", strings.Repeat("x", 200))
	assert.Less(t, len(filepath.Base(long)), 100)
}

func TestFactory_FileScopesDoNotCollide(t *testing.T) {
	ctx := context.Background()

	f, err := NewFactory(ctx, config.Config{
		CredentialStore: config.StoreFile,
		CredentialPath:  filepath.Join(t.TempDir(), "credentials.json"),
	})
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.Store("team.alice").Set(ctx, types.ProviderGitHub, "alice"))

	for _, other := range []string{"team/alice", "team_alice", "Team.Alice"} {
		v, err := f.Store(other).Get(ctx, types.ProviderGitHub)
		require.NoError(t, err)
		assert.Empty(t, v, "session %q sees handles of team.alice", other)
	}

	v, err := f.Store("team.alice").Get(ctx, types.ProviderGitHub)
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
}

func TestFactory_Release(t *testing.T) {
	ctx := context.Background()

	f, err := NewFactory(ctx, config.Config{CredentialStore: config.StoreMemory})
	require.NoError(t, err)
	defer f.Close()

	a := f.Store("a")
	require.NoError(t, a.Set(ctx, types.ProviderGitHub, "gh-a"))
	keep := f.Store("b")

	f.Release("a")
	f.Release("missing")

	fresh := f.Store("a")
	assert.NotSame(t, a, fresh)
	v, err := fresh.Get(ctx, types.ProviderGitHub)
	require.NoError(t, err)
	assert.Empty(t, v, "released scopes start empty")
	assert.Same(t, keep, f.Store("b"), "other scopes are kept")
}
