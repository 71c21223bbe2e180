// SPDX-License-Identifier: MPL-2.0

package engine_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/hd2mm/hd2mm/internal/config"
	"github.com/hd2mm/hd2mm/internal/engine"
	"github.com/hd2mm/hd2mm/internal/engine/mocks"
	"github.com/hd2mm/hd2mm/internal/issue"
	"github.com/hd2mm/hd2mm/internal/profile"
	"github.com/hd2mm/hd2mm/internal/registry"
	"github.com/hd2mm/hd2mm/internal/testutil"
)

const (
	guidA  = "aaaaaaaa-1111-4111-8111-111111111111"
	guidB  = "bbbbbbbb-2222-4222-8222-222222222222"
	archID = "9ba626afa44a3aa3"
)

type env struct {
	cfg     *config.Config
	game    string
	storage string
	inbox   string
}

func newEnv(t *testing.T, withGame bool) env {
	t.Helper()
	root := t.TempDir()
	e := env{
		cfg:     config.DefaultConfig(),
		storage: filepath.Join(root, "storage"),
		inbox:   filepath.Join(root, "inbox"),
	}
	e.cfg.StorageDirectory = config.DirectoryPath(e.storage)
	e.cfg.TempDirectory = config.DirectoryPath(filepath.Join(root, "tmp"))
	if withGame {
		e.game = filepath.Join(root, "game")
		testutil.MustMkdirAll(t, filepath.Join(e.game, "data"))
		testutil.MustMkdirAll(t, filepath.Join(e.game, "tools"))
		testutil.MustWriteFile(t, filepath.Join(e.game, "bin", "helldivers2.exe"), "")
		e.cfg.GameDirectory = config.GameDirectory(e.game)
	}
	return e
}

func (e env) dataDir() string { return filepath.Join(e.game, "data") }

func (e env) open(t *testing.T, n engine.Notifier) *engine.Engine {
	t.Helper()
	eng, err := engine.New(e.cfg, n, log.New(io.Discard), engine.WithParallelism(2))
	require.NoError(t, err)
	require.NoError(t, eng.Init(context.Background()))
	return eng
}

// archive writes a zip holding a two-option package and returns its path.
func (e env) archive(t *testing.T, guid, name string) string {
	t.Helper()
	manifest := fmt.Sprintf(`{
		"Version": 1,
		"Guid": %q,
		"Name": %q,
		"Options": [
			{"Name": "Base", "Include": ["base"]},
			{"Name": "Colour", "Include": [], "SubOptions": [
				{"Name": "Red", "Include": ["red"]},
				{"Name": "Blue", "Include": ["blue"]}
			]}
		]
	}`, guid, name)
	path := filepath.Join(e.inbox, name+".zip")
	testutil.WriteZip(t, path, testutil.Files(
		"manifest.json", manifest,
		"base/"+archID+".patch_0", name+" base",
		"red/"+archID+".patch_0", name+" red",
		"blue/"+archID+".patch_0", name+" blue",
	))
	return path
}

// recorder collects notifications for assertions.
type recorder struct {
	mu       sync.Mutex
	progress []engine.ProgressEvent
	problems []engine.ProblemsEvent
	infos    []engine.InfoEvent
}

func (r *recorder) Progress(ev engine.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, ev)
}

func (r *recorder) Problems(ev engine.ProblemsEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.problems = append(r.problems, ev)
}

func (r *recorder) Info(ev engine.InfoEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, ev)
}

func (r *recorder) infoKinds() []engine.InfoKind {
	out := make([]engine.InfoKind, len(r.infos))
	for i, ev := range r.infos {
		out[i] = ev.Kind
	}
	return out
}

func TestNew_RequiresNotifier(t *testing.T) {
	t.Parallel()

	_, err := engine.New(config.DefaultConfig(), nil, nil)
	require.ErrorIs(t, err, engine.ErrNilNotifier)
}

func TestAdd_NotifiesAndPersists(t *testing.T) {
	t.Parallel()

	e := newEnv(t, true)
	ctrl := gomock.NewController(t)
	n := mocks.NewMockNotifier(ctrl)
	n.EXPECT().Progress(engine.ProgressEvent{Operation: "add", Done: 0, Total: 1, Item: "Alpha"})
	var added engine.InfoEvent
	n.EXPECT().Info(gomock.AssignableToTypeOf(engine.InfoEvent{})).Do(func(ev engine.InfoEvent) { added = ev })

	eng := e.open(t, n)
	pkgs, err := eng.Add(context.Background(), e.archive(t, guidA, "Alpha"))
	require.NoError(t, err)
	require.Len(t, pkgs, 1)

	assert.Equal(t, engine.InfoAdded, added.Kind)
	assert.Equal(t, uuid.MustParse(guidA), added.Package)
	assert.True(t, pkgs[0].Enabled)
	assert.DirExists(t, filepath.Join(e.storage, guidA))
	assert.FileExists(t, filepath.Join(e.storage, profile.FileName))
}

func TestAdd_RejectsOutOfSupportManifest(t *testing.T) {
	t.Parallel()

	e := newEnv(t, true)
	path := filepath.Join(e.inbox, "future.zip")
	testutil.WriteZip(t, path, testutil.Files(
		"manifest.json", `{"Version": 2, "Guid": "`+guidA+`", "Name": "Future"}`,
		"base/"+archID+".patch_0", "x",
	))

	rec := &recorder{}
	eng := e.open(t, rec)
	pkgs, err := eng.Add(context.Background(), path)

	var rejected *engine.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Empty(t, pkgs)
	assert.Empty(t, eng.List())
	require.Len(t, rec.problems, 1)
	require.Len(t, rec.problems[0].Problems, 1)
	assert.Equal(t, issue.OutOfSupportManifest, rec.problems[0].Problems[0].Kind)
	assert.NoDirExists(t, filepath.Join(e.storage, guidA))
}

func TestAdd_BulkDropsArchivesWithoutManifest(t *testing.T) {
	t.Parallel()

	e := newEnv(t, true)
	bare := filepath.Join(e.inbox, "bare.zip")
	testutil.WriteZip(t, bare, testutil.Files("mod/"+archID+".patch_0", "bare"))

	rec := &recorder{}
	eng := e.open(t, rec)

	pkgs, err := eng.Add(context.Background(), e.archive(t, guidA, "Alpha"), bare)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Len(t, eng.List(), 1)
	require.Len(t, rec.problems, 1)
	assert.Equal(t, issue.NoManifestFound, rec.problems[0].Problems[0].Kind)

	// Added on its own, the same archive gets an inferred manifest.
	pkgs, err = eng.Add(context.Background(), bare)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Len(t, eng.List(), 2)
}

func TestAdd_DuplicateLeavesRegistryUnchanged(t *testing.T) {
	t.Parallel()

	e := newEnv(t, true)
	rec := &recorder{}
	eng := e.open(t, rec)
	added, err := eng.Add(context.Background(), e.archive(t, guidA, "Alpha"))
	require.NoError(t, err)
	require.Len(t, added, 1)

	copyPath := filepath.Join(e.inbox, "again.zip")
	require.NoError(t, os.Rename(e.archive(t, guidA, "Alpha"), copyPath))
	_, err = eng.Add(context.Background(), copyPath)
	require.ErrorIs(t, err, registry.ErrDuplicate)
	assert.Len(t, eng.List(), 1)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotEmpty(t, rec.problems)
	last := rec.problems[len(rec.problems)-1]
	assert.Equal(t, "add", last.Operation)
	require.Len(t, last.Problems, 1)
	assert.Equal(t, issue.Duplicate, last.Problems[0].Kind)
	assert.Equal(t, added[0].Dir, last.Problems[0].Detail)
	assert.True(t, last.Problems[0].IsError())
}

func TestDeployPurgeRoundTrip(t *testing.T) {
	t.Parallel()

	e := newEnv(t, true)
	testutil.MustWriteFile(t, filepath.Join(e.dataDir(), archID), "vanilla")
	before := testutil.ListFiles(t, e.dataDir())

	rec := &recorder{}
	eng := e.open(t, rec)
	_, err := eng.Add(context.Background(), e.archive(t, guidA, "Alpha"), e.archive(t, guidB, "Bravo"))
	require.NoError(t, err)

	res, err := eng.Deploy(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Entries, 4)
	assert.Equal(t, []string{
		archID + ".patch_0", archID + ".patch_1", archID + ".patch_2", archID + ".patch_3",
	}, res.Plan.Outputs())
	assert.Equal(t, "Alpha red", testutil.MustReadFile(t, filepath.Join(e.dataDir(), archID+".patch_1")))

	var deployProgress int
	for _, ev := range rec.progress {
		if ev.Operation == "deploy" {
			deployProgress++
		}
	}
	assert.Equal(t, 4, deployProgress)
	assert.Contains(t, rec.infoKinds(), engine.InfoDeployed)

	report, err := eng.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Clean())

	purged, err := eng.Purge(context.Background())
	require.NoError(t, err)
	assert.Len(t, purged.Removed, 4)
	assert.Equal(t, before, testutil.ListFiles(t, e.dataDir()))
}

func TestDeploy_ReplacesPreviousDeployment(t *testing.T) {
	t.Parallel()

	e := newEnv(t, true)
	eng := e.open(t, engine.NopNotifier())
	pkgs, err := eng.Add(context.Background(), e.archive(t, guidA, "Alpha"))
	require.NoError(t, err)

	_, err = eng.Deploy(context.Background())
	require.NoError(t, err)

	require.NoError(t, eng.SetOption(pkgs[0].ID, 1, false))
	res, err := eng.Deploy(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Purged.Removed, 2)
	assert.Equal(t, []string{archID + ".patch_0"}, testutil.ListFiles(t, e.dataDir()))
}

func TestDeploy_SkipListStartsAtSlotOne(t *testing.T) {
	t.Parallel()

	e := newEnv(t, true)
	e.cfg.SkipList = []string{archID}
	eng := e.open(t, engine.NopNotifier())
	_, err := eng.Add(context.Background(), e.archive(t, guidA, "Alpha"))
	require.NoError(t, err)

	res, err := eng.Deploy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{archID + ".patch_1", archID + ".patch_2"}, res.Plan.Outputs())
}

func TestGameDirectoryRequired(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)
	eng := e.open(t, engine.NopNotifier())

	_, err := eng.Deploy(context.Background())
	require.ErrorIs(t, err, config.ErrGameDirectoryNotSet)
	_, err = eng.Purge(context.Background())
	require.ErrorIs(t, err, config.ErrGameDirectoryNotSet)
	_, err = eng.HardPurge(context.Background(), nil)
	require.ErrorIs(t, err, config.ErrGameDirectoryNotSet)
	_, err = eng.Status(context.Background())
	require.ErrorIs(t, err, config.ErrGameDirectoryNotSet)

	// Registry operations work without a game directory.
	_, err = eng.Add(context.Background(), e.archive(t, guidA, "Alpha"))
	require.NoError(t, err)
}

func TestHardPurge_Confirmation(t *testing.T) {
	t.Parallel()

	e := newEnv(t, true)
	foreign := filepath.Join(e.dataDir(), archID+".patch_7")
	testutil.MustWriteFile(t, foreign, "other tool")
	eng := e.open(t, engine.NopNotifier())

	_, err := eng.HardPurge(context.Background(), func(string) bool { return false })
	require.ErrorIs(t, err, engine.ErrCanceled)
	assert.FileExists(t, foreign)

	res, err := eng.HardPurge(context.Background(), func(string) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, []string{archID + ".patch_7"}, res.Removed)
	assert.NoFileExists(t, foreign)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	e := newEnv(t, true)
	eng := e.open(t, engine.NopNotifier())
	pkgs, err := eng.Add(context.Background(), e.archive(t, guidA, "Alpha"), e.archive(t, guidB, "Bravo"))
	require.NoError(t, err)
	id := pkgs[0].ID

	var prompt string
	err = eng.Remove(id, func(p string) bool { prompt = p; return false })
	require.ErrorIs(t, err, engine.ErrCanceled)
	assert.Contains(t, prompt, "Alpha")
	assert.Len(t, eng.List(), 2)

	require.NoError(t, eng.Remove(id, nil))
	assert.Len(t, eng.List(), 1)
	assert.NoDirExists(t, filepath.Join(e.storage, guidA))
	assert.NotContains(t, testutil.MustReadFile(t, filepath.Join(e.storage, profile.FileName)), guidA)

	err = eng.Remove(id, nil)
	var ae *issue.ActionableError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, issue.PackageNotFoundId, ae.Issue)
}

func TestInit_RestoresProfile(t *testing.T) {
	t.Parallel()

	e := newEnv(t, true)
	first := e.open(t, engine.NopNotifier())
	pkgs, err := first.Add(context.Background(), e.archive(t, guidA, "Alpha"), e.archive(t, guidB, "Bravo"))
	require.NoError(t, err)
	a, b := pkgs[0].ID, pkgs[1].ID

	require.NoError(t, first.MoveBy(b, -1))
	require.NoError(t, first.SetEnabled(a, false))
	require.NoError(t, first.SelectSubOption(b, 1, 1))
	require.NoError(t, first.SetAlias(b, "Blue Bravo"))

	rec := &recorder{}
	second := e.open(t, rec)
	list := second.List()
	require.Len(t, list, 2)
	assert.Equal(t, b, list[0].ID)
	assert.Equal(t, a, list[1].ID)
	assert.False(t, list[1].Enabled)
	assert.Equal(t, 1, list[0].Options[1].Selected)
	assert.Equal(t, "Blue Bravo", list[0].DisplayName())
	assert.Empty(t, rec.problems)
	assert.Empty(t, rec.infos)

	got, err := second.Resolve("blue bravo")
	require.NoError(t, err)
	assert.Equal(t, b, got.ID)
}

func TestUpdate_KeepsPositionAndAlias(t *testing.T) {
	t.Parallel()

	e := newEnv(t, true)
	rec := &recorder{}
	eng := e.open(t, rec)
	pkgs, err := eng.Add(context.Background(), e.archive(t, guidA, "Alpha"), e.archive(t, guidB, "Bravo"))
	require.NoError(t, err)
	require.NoError(t, eng.SetAlias(pkgs[0].ID, "Mine"))

	updated, err := eng.Update(context.Background(), pkgs[0].ID, e.archive(t, guidA, "Alpha v2"))
	require.NoError(t, err)

	assert.False(t, updated.Enabled)
	assert.Equal(t, "Mine", updated.DisplayName())
	assert.Equal(t, "Alpha v2", updated.Manifest.Name)
	assert.Equal(t, updated.ID, eng.List()[0].ID)
	assert.Contains(t, rec.infoKinds(), engine.InfoUpdated)
}

func TestSearch_HonorsCaseSetting(t *testing.T) {
	t.Parallel()

	for _, sensitive := range []bool{false, true} {
		e := newEnv(t, false)
		e.cfg.CaseSensitiveSearch = sensitive
		eng := e.open(t, engine.NopNotifier())
		_, err := eng.Add(context.Background(), e.archive(t, guidA, "Alpha"))
		require.NoError(t, err)

		if sensitive {
			assert.Empty(t, eng.Search("alpha"))
		} else {
			assert.Len(t, eng.Search("alpha"), 1)
		}
		assert.Len(t, eng.Search("Alp"), 1)
	}
}

func TestOptionErrors(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)
	eng := e.open(t, engine.NopNotifier())
	pkgs, err := eng.Add(context.Background(), e.archive(t, guidA, "Alpha"))
	require.NoError(t, err)

	require.Error(t, eng.SetOption(pkgs[0].ID, 5, true))
	require.Error(t, eng.SelectSubOption(pkgs[0].ID, 0, 0))
	require.Error(t, eng.SetEnabled(uuid.New(), true))
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)
	eng := e.open(t, engine.NopNotifier())
	pkgs, err := eng.Add(context.Background(), e.archive(t, guidA, "Alpha"))
	require.NoError(t, err)
	id := pkgs[0].ID

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, eng.SetEnabled(id, i%2 == 0))
			_ = eng.List()
		}()
	}
	wg.Wait()
	require.NoError(t, eng.Save())
}
