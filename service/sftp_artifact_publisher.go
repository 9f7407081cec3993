package service

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"mlops_webapp/config"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

const (
	DefaultDeployServerPort = 22
	DefaultDeployServerUser = "root"
)

var (
	ErrDeployServerNotConfigured = errors.New("deploy server is not configured")
	ErrDeployKeyPathRequired     = errors.New("deploy server private key path is required")
	ErrLocalArtifactNotFound     = errors.New("local model artifact not found")
	ErrLocalArtifactNotRegular   = errors.New("local model artifact is not a regular file")
)

var defaultSSHTimeout = 15 * time.Second

// DeployServerConfig 部署目标机（MinIO 网关前置的静态文件机）
type DeployServerConfig struct {
	Host           string
	Port           int
	User           string
	PrivateKeyPath string
	RemoteRoot     string
	Timeout        time.Duration
}

type remoteFileClient interface {
	MkdirAll(remoteDir string) error
	UploadFile(localPath, remotePath string) (int64, error)
	Close() error
}

type remoteFileClientFactory interface {
	New(server DeployServerConfig) (remoteFileClient, error)
}

// SFTPArtifactPublisher 把选中的模型产物推到部署机。
// 只有上传确认成功，调用方才允许记部署流水。
type SFTPArtifactPublisher struct {
	server        DeployServerConfig
	clientFactory remoteFileClientFactory
}

func NewSFTPArtifactPublisher() *SFTPArtifactPublisher {
	server := DeployServerConfig{
		Port:    DefaultDeployServerPort,
		User:    DefaultDeployServerUser,
		Timeout: defaultSSHTimeout,
	}
	if config.AppConfig != nil {
		cfg := config.AppConfig.Deploy
		server.Host = cfg.Host
		server.RemoteRoot = cfg.RemoteRoot
		if cfg.Port > 0 {
			server.Port = cfg.Port
		}
		if cfg.User != "" {
			server.User = cfg.User
		}
		server.PrivateKeyPath = cfg.PrivateKeyPath
	}
	if server.PrivateKeyPath == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			server.PrivateKeyPath = filepath.Join(homeDir, ".ssh", "id_rsa")
		}
	}

	return &SFTPArtifactPublisher{
		server:        server,
		clientFactory: sshClientFactory{},
	}
}

// Publish 上传本地产物，返回远端路径。
func (p *SFTPArtifactPublisher) Publish(localPath string) (string, error) {
	logger := serviceLogger().With("service", "SFTPArtifactPublisher", "method", "Publish")

	if p.server.Host == "" || p.server.RemoteRoot == "" {
		return "", ErrDeployServerNotConfigured
	}
	if p.server.PrivateKeyPath == "" {
		return "", ErrDeployKeyPathRequired
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrLocalArtifactNotFound, localPath)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrLocalArtifactNotRegular, localPath)
	}

	client, err := p.clientFactory.New(p.server)
	if err != nil {
		return "", fmt.Errorf("connect deploy server failed (host=%s): %w", p.server.Host, err)
	}
	defer client.Close()

	if err := client.MkdirAll(p.server.RemoteRoot); err != nil {
		return "", fmt.Errorf("prepare remote root failed (%s): %w", p.server.RemoteRoot, err)
	}

	remotePath := path.Join(p.server.RemoteRoot, filepath.Base(localPath))
	start := time.Now()
	bytes, err := client.UploadFile(localPath, remotePath)
	if err != nil {
		return "", fmt.Errorf("upload artifact failed (%s -> %s): %w", localPath, remotePath, err)
	}

	logger.Info("model artifact published",
		"host", p.server.Host, "remote_path", remotePath,
		"bytes", bytes, "cost", time.Since(start))
	return remotePath, nil
}

type sshClientFactory struct{}

func (sshClientFactory) New(server DeployServerConfig) (remoteFileClient, error) {
	keyData, err := os.ReadFile(server.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key failed: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("parse private key failed: %w", err)
	}

	timeout := server.Timeout
	if timeout <= 0 {
		timeout = defaultSSHTimeout
	}

	sshConfig := &ssh.ClientConfig{
		User:            server.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(server.Host, strconv.Itoa(server.Port))
	sshConn, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, fmt.Errorf("ssh dial failed: %w", err)
	}

	sftpClient, err := sftp.NewClient(sshConn)
	if err != nil {
		_ = sshConn.Close()
		return nil, fmt.Errorf("open sftp session failed: %w", err)
	}

	return &sshRemoteClient{ssh: sshConn, sftp: sftpClient}, nil
}

type sshRemoteClient struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

func (c *sshRemoteClient) MkdirAll(remoteDir string) error {
	return c.sftp.MkdirAll(remoteDir)
}

func (c *sshRemoteClient) UploadFile(localPath, remotePath string) (int64, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	dst, err := c.sftp.Create(remotePath)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	return io.Copy(dst, src)
}

func (c *sshRemoteClient) Close() error {
	err1 := c.sftp.Close()
	err2 := c.ssh.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
