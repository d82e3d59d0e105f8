package filesys_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lc/myip/internal/filesys"
	"github.com/lc/myip/internal/mocks"
)

type AtomicWriteTestSuite struct {
	suite.Suite
	dir string
}

func (s *AtomicWriteTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *AtomicWriteTestSuite) TestWritesNewFile() {
	dst := filepath.Join(s.dir, "nested", "current.json")

	err := filesys.AtomicWrite(filesys.OS(), dst, []byte(`{"ip":"203.0.113.5"}`), 0o600)
	s.Require().NoError(err)

	got, err := os.ReadFile(dst)
	s.Require().NoError(err)
	s.Equal(`{"ip":"203.0.113.5"}`, string(got))

	fi, err := os.Stat(dst)
	s.Require().NoError(err)
	s.Equal(os.FileMode(0o600), fi.Mode().Perm())
}

func (s *AtomicWriteTestSuite) TestReplacesExistingFileAndLeavesNoTemp() {
	dst := filepath.Join(s.dir, "current.json")
	s.Require().NoError(os.WriteFile(dst, []byte("old"), 0o644))

	s.Require().NoError(filesys.AtomicWrite(filesys.OS(), dst, []byte("new"), 0o644))

	got, err := os.ReadFile(dst)
	s.Require().NoError(err)
	s.Equal("new", string(got))

	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *AtomicWriteTestSuite) TestRenameFailureRemovesTemp() {
	dst := filepath.Join(s.dir, "current.json")
	tmp, err := os.CreateTemp(s.dir, ".myip-*")
	s.Require().NoError(err)

	m := new(mocks.MockOsFS)
	m.On("MkdirAll", s.dir, os.FileMode(0o755)).Return(nil)
	m.On("CreateTemp", s.dir, ".myip-*").Return(tmp, nil)
	m.On("Chmod", tmp.Name(), os.FileMode(0o600)).Return(nil)
	m.On("Rename", tmp.Name(), dst).Return(errors.New("cross-device link"))
	m.On("Remove", tmp.Name()).Return(nil)

	err = filesys.AtomicWrite(m, dst, []byte("data"), 0o600)
	s.Require().Error(err)
	s.Contains(err.Error(), "cross-device link")
	m.AssertExpectations(s.T())
	m.AssertNotCalled(s.T(), "Open", mock.Anything)
}

func (s *AtomicWriteTestSuite) TestMkdirFailure() {
	m := new(mocks.MockOsFS)
	m.On("MkdirAll", "/ro", os.FileMode(0o755)).Return(os.ErrPermission)

	err := filesys.AtomicWrite(m, "/ro/current.json", []byte("data"), 0o600)
	s.Require().Error(err)
	s.ErrorIs(err, os.ErrPermission)
	m.AssertNotCalled(s.T(), "CreateTemp", mock.Anything, mock.Anything)
}

func TestAtomicWriteSuite(t *testing.T) {
	suite.Run(t, new(AtomicWriteTestSuite))
}
