package resultmerge

import "testing"

func TestRewriteMsgFixesUpwardRelativeLinks(t *testing.T) {
	msg := &Msg{HTML: "yes", Text: `<img src="../../shot.png">`}
	rewriteMsg(msg, "item1", nil)
	if msg.Text != `<img src="shot.png">` {
		t.Fatalf("got %q", msg.Text)
	}
}

func TestRewriteMsgInsertsArtifactPrefix(t *testing.T) {
	patterns := compileArtifactPatterns([]string{"shot.png"})
	msg := &Msg{HTML: "yes", Text: `<img src="shot.png">`}
	rewriteMsg(msg, "item1", patterns)
	if msg.Text != `<img src="item1-shot.png">` {
		t.Fatalf("got %q", msg.Text)
	}
}

func TestRewriteMsgIgnoresNonHTMLMessages(t *testing.T) {
	msg := &Msg{HTML: "", Text: `src="../../shot.png"`}
	rewriteMsg(msg, "item1", nil)
	if msg.Text != `src="../../shot.png"` {
		t.Fatalf("expected non-html message untouched, got %q", msg.Text)
	}
}

func TestArtifactPrefixIsParentDirName(t *testing.T) {
	if got := artifactPrefix("/runs/item3/output.xml"); got != "item3" {
		t.Fatalf("got %q", got)
	}
}
