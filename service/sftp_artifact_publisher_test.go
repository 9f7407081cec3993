package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemoteClient struct {
	mkdirDirs  []string
	uploads    [][2]string
	mkdirErr   error
	uploadErr  error
	closed     bool
	uploadSize int64
}

func (f *fakeRemoteClient) MkdirAll(remoteDir string) error {
	f.mkdirDirs = append(f.mkdirDirs, remoteDir)
	return f.mkdirErr
}

func (f *fakeRemoteClient) UploadFile(localPath, remotePath string) (int64, error) {
	f.uploads = append(f.uploads, [2]string{localPath, remotePath})
	return f.uploadSize, f.uploadErr
}

func (f *fakeRemoteClient) Close() error {
	f.closed = true
	return nil
}

type fakeClientFactory struct {
	client  *fakeRemoteClient
	newErr  error
	dialled []DeployServerConfig
}

func (f *fakeClientFactory) New(server DeployServerConfig) (remoteFileClient, error) {
	f.dialled = append(f.dialled, server)
	if f.newErr != nil {
		return nil, f.newErr
	}
	return f.client, nil
}

func publisherWithFakes(t *testing.T, factory *fakeClientFactory) (*SFTPArtifactPublisher, string) {
	t.Helper()
	localPath := filepath.Join(t.TempDir(), "best.pt")
	require.NoError(t, os.WriteFile(localPath, []byte("weights"), 0o644))

	return &SFTPArtifactPublisher{
		server: DeployServerConfig{
			Host:           "deploy.internal",
			Port:           22,
			User:           "deploy",
			PrivateKeyPath: "/etc/keys/deploy_rsa",
			RemoteRoot:     "/srv/models",
		},
		clientFactory: factory,
	}, localPath
}

func TestPublishUploadsUnderRemoteRoot(t *testing.T) {
	client := &fakeRemoteClient{uploadSize: 7}
	factory := &fakeClientFactory{client: client}
	publisher, localPath := publisherWithFakes(t, factory)

	remotePath, err := publisher.Publish(localPath)
	require.NoError(t, err)

	assert.Equal(t, "/srv/models/best.pt", remotePath)
	assert.Equal(t, []string{"/srv/models"}, client.mkdirDirs)
	require.Len(t, client.uploads, 1)
	assert.Equal(t, localPath, client.uploads[0][0])
	assert.Equal(t, "/srv/models/best.pt", client.uploads[0][1])
	assert.True(t, client.closed)
}

func TestPublishRequiresServerConfig(t *testing.T) {
	publisher := &SFTPArtifactPublisher{server: DeployServerConfig{}}
	_, err := publisher.Publish("/tmp/best.pt")
	assert.ErrorIs(t, err, ErrDeployServerNotConfigured)

	publisher = &SFTPArtifactPublisher{server: DeployServerConfig{
		Host:       "deploy.internal",
		RemoteRoot: "/srv/models",
	}}
	_, err = publisher.Publish("/tmp/best.pt")
	assert.ErrorIs(t, err, ErrDeployKeyPathRequired)
}

func TestPublishRejectsMissingLocalArtifact(t *testing.T) {
	factory := &fakeClientFactory{client: &fakeRemoteClient{}}
	publisher, _ := publisherWithFakes(t, factory)

	_, err := publisher.Publish(filepath.Join(t.TempDir(), "nope.pt"))
	assert.ErrorIs(t, err, ErrLocalArtifactNotFound)
	assert.Empty(t, factory.dialled)
}

func TestPublishRejectsDirectoryArtifact(t *testing.T) {
	factory := &fakeClientFactory{client: &fakeRemoteClient{}}
	publisher, _ := publisherWithFakes(t, factory)

	_, err := publisher.Publish(t.TempDir())
	assert.ErrorIs(t, err, ErrLocalArtifactNotRegular)
}

func TestPublishWrapsConnectFailure(t *testing.T) {
	dialErr := errors.New("ssh dial failed: connection refused")
	factory := &fakeClientFactory{newErr: dialErr}
	publisher, localPath := publisherWithFakes(t, factory)

	_, err := publisher.Publish(localPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, dialErr)
	assert.Contains(t, err.Error(), "deploy.internal")
}

func TestPublishUploadFailureClosesClient(t *testing.T) {
	client := &fakeRemoteClient{uploadErr: errors.New("sftp session dropped")}
	factory := &fakeClientFactory{client: client}
	publisher, localPath := publisherWithFakes(t, factory)

	_, err := publisher.Publish(localPath)
	require.Error(t, err)
	assert.True(t, client.closed)
}
