package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestProcessDown_Render(t *testing.T) {
	r := ProcessDown{Processes: NewProcessStatus(map[string]bool{
		"sysrelayer": true,
		"agent":      false,
	})}

	if r.Condition() != ConditionProcessDown {
		t.Fatalf("unexpected condition %q", r.Condition())
	}
	text := r.Text()
	if !strings.HasPrefix(text, "One or more key processes (agent, sysrelayer) has stopped unexpectedly.") {
		t.Errorf("unexpected headline: %q", text)
	}
	if !strings.Contains(text, "agent: false\n") || !strings.Contains(text, "sysrelayer: true\n") {
		t.Errorf("missing process lines: %q", text)
	}

	html := string(r.HTML())
	if !strings.Contains(html, `<li style="color:red; font-weight: bold">agent: false</li>`) {
		t.Errorf("down process not highlighted: %s", html)
	}
	if !strings.Contains(html, "<li>sysrelayer: true</li>") {
		t.Errorf("running process missing: %s", html)
	}
}

func TestProcessDown_ProbeError(t *testing.T) {
	r := ProcessDown{Processes: ProcessStatus{IsError: true, Err: "permission <denied>"}}
	if !strings.Contains(r.Text(), "probe error: permission <denied>") {
		t.Errorf("unexpected text: %q", r.Text())
	}
	if !strings.Contains(string(r.HTML()), "permission &lt;denied&gt;") {
		t.Errorf("probe error not escaped: %s", r.HTML())
	}
}

func TestChainReasons(t *testing.T) {
	local := &ChainTip{Height: 7, Hash: "<x>"}

	mismatch := ChainMismatch{Local: local}
	if !strings.HasPrefix(mismatch.Text(), "Syscoin full node is on wrong chain.") {
		t.Errorf("unexpected text: %q", mismatch.Text())
	}
	if !strings.Contains(mismatch.Text(), "remote: null") {
		t.Errorf("nil tip should render as null: %q", mismatch.Text())
	}
	if strings.Contains(string(mismatch.HTML()), "<x>") {
		t.Errorf("tip not escaped in HTML: %s", mismatch.HTML())
	}

	desync := ChainDesync{Local: local, Remote: &ChainTip{Height: 40}}
	if desync.Condition() != ConditionChainDesync || !strings.HasPrefix(desync.Text(), "Ethereum geth out of sync.") {
		t.Errorf("unexpected desync rendering: %q", desync.Text())
	}

	if (Undetermined{}).Text() != "Cannot determine!" {
		t.Error("unexpected undetermined text")
	}
}

func TestHealthSnapshot_JSON(t *testing.T) {
	snap := HealthSnapshot{
		Processes: NewProcessStatus(map[string]bool{"agent": true}),
		Syscoin:   InconclusiveChain("processes down"),
	}
	if snap.Healthy() {
		t.Fatal("inconclusive chain must be unhealthy")
	}

	b, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	sys := out["sysStatus"].(map[string]any)
	if sys["isError"] != true || sys["local"] != nil || sys["remote"] != nil {
		t.Errorf("unexpected sysStatus: %v", sys)
	}
	if _, ok := out["detail"]; ok {
		t.Error("detail should be omitted when nil")
	}
}

func TestProcessStatus_Down(t *testing.T) {
	ps := NewProcessStatus(map[string]bool{"b": false, "a": false, "c": true})
	if !ps.IsError {
		t.Fatal("expected IsError")
	}
	if got := strings.Join(ps.Down(), ","); got != "a,b" {
		t.Errorf("Down() = %q", got)
	}
	if NewProcessStatus(map[string]bool{"a": true}).IsError {
		t.Error("all running should not be an error")
	}
}
