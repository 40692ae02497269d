package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Display names and reviewer notes come from applicants and admins and
// must not become markup in the HTML mail body.
func TestMailBodies_EscapeUntrustedInput(t *testing.T) {
	body := rejectedMailBody("Dr. <b>Smith</b>", `see <script>alert(1)</script> & "notes"`)
	assert.Contains(t, body, "Dr. &lt;b&gt;Smith&lt;/b&gt;")
	assert.Contains(t, body, "Reviewer notes: see &lt;script&gt;alert(1)&lt;/script&gt; &amp; &#34;notes&#34;")
	assert.NotContains(t, body, "<script>")

	assert.Contains(t, receivedMailBody("<i>x</i>"), "&lt;i&gt;x&lt;/i&gt;")
	assert.Contains(t, approvedMailBody("<i>x</i>"), "&lt;i&gt;x&lt;/i&gt;")
	assert.Contains(t, revisionMailBody("<i>x</i>"), "&lt;i&gt;x&lt;/i&gt;")
}

func TestRejectedMailBody_NotesOptional(t *testing.T) {
	body := rejectedMailBody("Dr. Smith", "")
	assert.NotContains(t, body, "Reviewer notes")
}
