package channel

import (
    "errors"
    "testing"
)

func TestRequestCompleteOnce(t *testing.T) {
    req := newRequest(KindSend)
    if done, _ := req.Test(); done {
        t.Fatal("fresh request reports done")
    }
    req.complete(nil)
    req.complete(errors.New("late")) // ignored
    done, err := req.Test()
    if !done || err != nil {
        t.Fatalf("done=%v err=%v", done, err)
    }
    if err := req.Wait(); err != nil {
        t.Fatalf("wait: %v", err)
    }
}

func TestRequestCancelBeatsCommit(t *testing.T) {
    req := newRequest(KindRecv)
    req.Cancel()
    ran := false
    req.commit(func() error { ran = true; return nil })
    if ran {
        t.Fatal("commit ran after cancel")
    }
    if !req.Cancelled() {
        t.Fatal("request not marked cancelled")
    }
}

func TestRequestCommitBeatsCancel(t *testing.T) {
    req := newRequest(KindRecv)
    req.commit(func() error { return nil })
    req.Cancel() // completion race, benign
    if req.Cancelled() {
        t.Fatal("completed request reported cancelled")
    }
    if err := req.Wait(); err != nil {
        t.Fatalf("wait: %v", err)
    }
}

func TestRequestKindString(t *testing.T) {
    if KindSend.String() != "send" || KindRecv.String() != "recv" || KindQuitProbe.String() != "quit-probe" {
        t.Fatal("unexpected kind strings")
    }
}
