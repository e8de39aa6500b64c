//go:build linux

package procinfo

import "testing"

func TestParseCgroupDocker(t *testing.T) {
	content := "0::/system.slice/docker-abcdef0123456789abcdef.scope\n"
	containerID, serviceName := parseCgroup(content)
	if containerID != "abcdef012345" {
		t.Errorf("containerID = %q, want %q", containerID, "abcdef012345")
	}
	if serviceName != "" {
		t.Errorf("serviceName = %q, want empty", serviceName)
	}
}

func TestParseCgroupSystemdService(t *testing.T) {
	content := "0::/system.slice/nginx.service\n"
	containerID, serviceName := parseCgroup(content)
	if containerID != "" {
		t.Errorf("containerID = %q, want empty", containerID)
	}
	if serviceName != "nginx.service" {
		t.Errorf("serviceName = %q, want nginx.service", serviceName)
	}
}

func TestParseCgroupPodman(t *testing.T) {
	content := "0::/machine.slice/libpod-deadbeefcafe1234567890.scope\n"
	containerID, _ := parseCgroup(content)
	if containerID != "deadbeefcafe" {
		t.Errorf("containerID = %q, want %q", containerID, "deadbeefcafe")
	}
}

func TestParseCgroupEmpty(t *testing.T) {
	containerID, serviceName := parseCgroup("")
	if containerID != "" || serviceName != "" {
		t.Errorf("expected empty results for empty content, got (%q, %q)", containerID, serviceName)
	}
}
