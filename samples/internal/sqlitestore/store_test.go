// Copyright (c) Microsoft. All rights reserved.

package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := Open(path)
	require.NoError(t, err)
	call := af.Message{Role: af.RoleAssistant, Contents: af.Contents{
		&af.FunctionCallContent{CallID: "c1", Name: "get_current_user", Arguments: `{}`},
	}}
	require.NoError(t, db.Thread("t1").AddMessages(ctx, []af.Message{
		af.NewUserMessage("Who am I?"),
		call,
		af.NewToolMessage("c1", "alice"),
	}))
	require.NoError(t, db.Thread("t2").AddMessages(ctx, []af.Message{af.NewUserMessage("other")}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	msgs, err := db.Thread("t1").ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Who am I?", msgs[0].Text())
	fc, ok := msgs[1].Contents[0].(*af.FunctionCallContent)
	require.True(t, ok)
	assert.Equal(t, "get_current_user", fc.Name)
	assert.Equal(t, af.RoleTool, msgs[2].Role)

	other, err := db.Thread("t2").ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "other", other[0].Text())
}

func TestStore_BacksSession(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := db.Thread("default")
	session := af.NewSession(af.WithSessionStore(store))
	assert.Same(t, store, session.Store())

	require.NoError(t, store.AddMessages(ctx, nil))
	require.NoError(t, store.AddMessages(ctx, []af.Message{af.NewUserMessage("hi")}))
	removed, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
	msgs, err := store.ListMessages(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
