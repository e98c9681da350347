package ipc

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ctl.sock")
	srv := NewServer(path, func(cmd Command) Response {
		switch cmd.Op {
		case OpStatus:
			return Response{OK: true, State: "idle", Transcript: "hello", Reply: "hi"}
		case OpPress, OpRelease, OpCancel:
			return Response{OK: true, State: "recording"}
		default:
			return Response{OK: false, Error: "unknown op " + cmd.Op}
		}
	})
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Close()

	resp, err := Send(path, Command{Op: OpStatus}, time.Second)
	if err != nil {
		t.Fatalf("Send status: %v", err)
	}
	if !resp.OK || resp.State != "idle" || resp.Transcript != "hello" || resp.Reply != "hi" {
		t.Errorf("status response = %+v", resp)
	}

	resp, err = Send(path, Command{Op: OpPress}, time.Second)
	if err != nil {
		t.Fatalf("Send press: %v", err)
	}
	if !resp.OK || resp.State != "recording" {
		t.Errorf("press response = %+v", resp)
	}

	resp, err = Send(path, Command{Op: "dance"}, time.Second)
	if err != nil {
		t.Fatalf("Send unknown: %v", err)
	}
	if resp.OK || resp.Error != "unknown op dance" {
		t.Errorf("unknown op response = %+v", resp)
	}
}

func TestStartReplacesStaleSocket(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ctl.sock")
	if err := os.WriteFile(path, []byte("stale"), 0o600); err != nil {
		t.Fatal(err)
	}

	srv := NewServer(path, func(Command) Response { return Response{OK: true} })
	if err := srv.Start(); err != nil {
		t.Fatalf("Start over stale socket: %v", err)
	}
	defer srv.Close()

	if _, err := Send(path, Command{Op: OpStatus}, time.Second); err != nil {
		t.Fatalf("Send after stale replacement: %v", err)
	}
}

func TestSendWithoutDaemon(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nobody.sock")
	if _, err := Send(path, Command{Op: OpPress}, 200*time.Millisecond); err == nil {
		t.Fatal("Send to absent daemon succeeded")
	}
}

func TestMalformedCommandGetsErrorResponse(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ctl.sock")
	srv := NewServer(path, func(Command) Response { return Response{OK: true} })
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Close()

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("this is not json\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(time.Second))

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OK || resp.Error == "" {
		t.Errorf("malformed command response = %+v, want an error", resp)
	}
}

func TestConcurrentClients(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ctl.sock")
	srv := NewServer(path, func(cmd Command) Response {
		return Response{OK: true, State: cmd.Op}
	})
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Close()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := Send(path, Command{Op: OpStatus}, time.Second)
			if err != nil {
				t.Errorf("Send: %v", err)
				return
			}
			if !resp.OK || resp.State != OpStatus {
				t.Errorf("response = %+v", resp)
			}
		}()
	}
	wg.Wait()
}

func TestSendAfterClose(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ctl.sock")
	srv := NewServer(path, func(Command) Response { return Response{OK: true} })
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := Send(path, Command{Op: OpPress}, 200*time.Millisecond); err == nil {
		t.Fatal("Send succeeded after server close")
	}
}
