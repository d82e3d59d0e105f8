// Package mocks holds testify mocks shared by package tests.
package mocks

import (
	"io/fs"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/lc/myip/internal/filesys"
)

var (
	_ filesys.ReadWriteFS = (*MockOsFS)(nil)
	_ filesys.FileOps     = (*MockOsFS)(nil)
)

// MockOsFS mocks both filesys.ReadWriteFS and filesys.FileOps.
type MockOsFS struct {
	mock.Mock
}

func (m *MockOsFS) Stat(p string) (fs.FileInfo, error) {
	args := m.Called(p)
	var fi fs.FileInfo
	if v := args.Get(0); v != nil {
		fi = v.(fs.FileInfo)
	}
	return fi, args.Error(1)
}

func (m *MockOsFS) MkdirAll(p string, mode os.FileMode) error {
	return m.Called(p, mode).Error(0)
}

func (m *MockOsFS) Open(p string) (*os.File, error) {
	args := m.Called(p)
	var f *os.File
	if v := args.Get(0); v != nil {
		f = v.(*os.File)
	}
	return f, args.Error(1)
}

func (m *MockOsFS) ReadFile(p string) ([]byte, error) {
	args := m.Called(p)
	var data []byte
	if v := args.Get(0); v != nil {
		data = v.([]byte)
	}
	return data, args.Error(1)
}

func (m *MockOsFS) WriteFile(p string, b []byte, mode os.FileMode) error {
	return m.Called(p, b, mode).Error(0)
}

func (m *MockOsFS) CreateTemp(dir, pat string) (*os.File, error) {
	args := m.Called(dir, pat)
	var f *os.File
	if v := args.Get(0); v != nil {
		f = v.(*os.File)
	}
	return f, args.Error(1)
}

func (m *MockOsFS) Rename(old, newPath string) error {
	return m.Called(old, newPath).Error(0)
}

func (m *MockOsFS) Remove(p string) error {
	return m.Called(p).Error(0)
}

func (m *MockOsFS) Chmod(p string, mode os.FileMode) error {
	return m.Called(p, mode).Error(0)
}
