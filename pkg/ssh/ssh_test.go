package ssh_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
	"github.com/dcos/dcos-test-utils/pkg/ssh"
)

var _ = Describe("ParseHost", func() {
	DescribeTable("should split host and port",
		func(input, host string, port int) {
			h, p, err := ssh.ParseHost(input)

			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(host))
			Expect(p).To(Equal(port))
		},
		Entry("without port", "10.0.0.1", "10.0.0.1", 22),
		Entry("with port", "10.0.0.1:2222", "10.0.0.1", 2222),
	)

	DescribeTable("should reject",
		func(input string) {
			_, _, err := ssh.ParseHost(input)

			Expect(srvErrors.IsInvalidHostError(err)).To(BeTrue())
		},
		Entry("more than one colon", "fe80::1"),
		Entry("a non numeric port", "10.0.0.1:ssh"),
	)
})

var _ = Describe("Client", func() {
	var (
		ctx    context.Context
		fake   fakeBinaries
		client *ssh.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = writeFakeBinaries()

		var err error
		client, err = ssh.NewClient("core", []byte("private key"), ssh.WithBinaries(fake.ssh, fake.scp))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(client.Close)
	})

	It("should write the key for the owner only", func() {
		st, err := os.Stat(client.KeyPath)

		Expect(err).NotTo(HaveOccurred())
		Expect(st.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		data, err := os.ReadFile(client.KeyPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("private key"))
	})

	// Given an ssh binary running remote commands locally
	// When we run a command on a host
	// Then a tunnel should be opened, used and closed
	It("should run a command through a tunnel", func() {
		// Act
		out, err := client.Command(ctx, "10.0.0.1", 2222, "echo", "hi")

		// Assert
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal("hi\n"))

		calls := fake.calls()
		Expect(calls).To(HaveLen(3))
		Expect(calls[0]).To(ContainSubstring("-oControlMaster=auto -p 2222 -fnN -i " + client.KeyPath + " core@10.0.0.1"))
		Expect(calls[0]).To(HavePrefix("-oConnectTimeout=10 -oStrictHostKeyChecking=no"))
		Expect(calls[1]).To(HaveSuffix("core@10.0.0.1 echo hi"))
		Expect(calls[2]).To(HaveSuffix("-O exit core@10.0.0.1"))
	})

	It("should return a command error on failure", func() {
		_, err := client.Command(ctx, "10.0.0.1", 22, "exit", "4")

		Expect(srvErrors.IsCommandError(err)).To(BeTrue())
		Expect(fake.calls()).To(HaveLen(3))
	})

	It("should return the home directory", func() {
		wd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		home, err := client.HomeDir(ctx, "10.0.0.1", 22)

		Expect(err).NotTo(HaveOccurred())
		Expect(home).To(Equal(wd))
	})

	It("should copy a file through the tunnel", func() {
		dir := GinkgoT().TempDir()
		src := filepath.Join(dir, "src")
		dst := filepath.Join(dir, "dst")
		Expect(os.WriteFile(src, []byte("content"), 0o644)).To(Succeed())

		err := client.WithTunnel(ctx, "10.0.0.1", 22, func(t *ssh.Tunnel) error {
			return t.CopyFile(ctx, src, dst)
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(os.ReadFile(dst)).To(Equal([]byte("content")))
	})

	It("should add the user to the docker group", func() {
		err := client.AddUserToDockerGroup(ctx, "10.0.0.1", 22)

		Expect(err).NotTo(HaveOccurred())
		Expect(fake.calls()).To(ContainElement(HaveSuffix("core@10.0.0.1 sudo usermod -aG docker core")))
	})

	Context("WaitForConnection", func() {
		It("should return once the host answers", func() {
			Expect(client.WaitForConnection(ctx, "10.0.0.1", 22)).To(Succeed())
		})

		It("should give up when the context is done", func() {
			failing, err := ssh.NewClient("core", []byte("k"), ssh.WithBinaries("/bin/false", fake.scp))
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(failing.Close)

			ctx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
			defer cancel()

			Expect(failing.WaitForConnection(ctx, "10.0.0.1", 22)).NotTo(Succeed())
		})
	})
})
