// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeebo/errs"

	"storj.io/tracmeta/metadata"
)

func TestCodeOf(t *testing.T) {
	for _, tt := range []struct {
		err  error
		code metadata.Code
	}{
		{nil, metadata.CodeOK},
		{metadata.ErrMissingItem.New("gone"), metadata.CodeMissingItem},
		{metadata.ErrDuplicateItem.New("again"), metadata.CodeDuplicateItem},
		{metadata.ErrWrongItemType.New("model, not data"), metadata.CodeWrongItemType},
		{metadata.ErrVersionConflict.New("lost race"), metadata.CodeVersionConflict},
		{metadata.ErrInputValidation.New("bad request"), metadata.CodeInputValidation},
		{metadata.ErrVersionValidation.New("rejected"), metadata.CodeVersionValidation},
		{metadata.ErrTransientStorage.New("deadlock"), metadata.CodeTransientStorage},
		{metadata.ErrPermanentStorage.New("disk gone"), metadata.CodePermanentStorage},
		{metadata.ErrDeadlineExceeded.New("too slow"), metadata.CodeDeadlineExceeded},
		{metadata.ErrInternal.New("broken invariant"), metadata.CodeInternal},

		// wrapped errors keep their classification
		{metadata.Error.Wrap(metadata.ErrMissingItem.New("gone")), metadata.CodeMissingItem},
		{fmt.Errorf("outer: %w", metadata.ErrVersionConflict.New("lost race")), metadata.CodeVersionConflict},

		// context failures count against the deadline
		{context.DeadlineExceeded, metadata.CodeDeadlineExceeded},
		{context.Canceled, metadata.CodeDeadlineExceeded},

		// anything unclassified stays internal
		{errs.New("mystery"), metadata.CodeInternal},
		{metadata.ErrDataCorruption.New("bad row"), metadata.CodeInternal},
	} {
		require.Equal(t, tt.code, metadata.CodeOf(tt.err), "%v", tt.err)
	}
}
