package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderPickerCommand(t *testing.T) {
	name, args, err := folderPickerCommand("darwin", `Pick "music"`)
	require.NoError(t, err)
	assert.Equal(t, "osascript", name)
	assert.Equal(t, []string{"-e", `POSIX path of (choose folder with prompt "Pick \"music\"")`}, args)

	name, args, err = folderPickerCommand("linux", "")
	require.NoError(t, err)
	assert.Equal(t, "zenity", name)
	assert.Contains(t, args, "--directory")
	assert.Contains(t, args, "--title=Select output folder")

	name, _, err = folderPickerCommand("windows", "it's")
	require.NoError(t, err)
	assert.Equal(t, "powershell", name)

	_, _, err = folderPickerCommand("plan9", "")
	assert.ErrorIs(t, err, ErrPickerUnsupported)
}
