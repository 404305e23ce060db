package codec

import (
	"fmt"
	"sort"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
	"github.com/SAP-F-2025/qti-delivery-service/internal/runtime"
)

// FormatVersion is the current binary session format version. Streams
// written at or above versionWithBranch carry a branch tag after the
// version byte; the route cursor has been a full integer (not a single
// byte) since the same version, so routes longer than 255 items persist
// correctly.
const (
	FormatVersion     uint8 = 2
	versionWithBranch uint8 = 2

	// BranchTag names the format lineage of this writer.
	BranchTag = "master"
)

const (
	natureOutcome uint8 = iota
	natureResponse
	natureTemplate
)

// SessionCodec encodes and decodes assessment test sessions against one
// static test definition. Components are stored as integer offsets into
// the definition's pre-order index, never by value, so decoding requires
// the same definition the session was created from.
type SessionCodec struct {
	test   *models.AssessmentTest
	seeker *runtime.Seeker
}

// NewSessionCodec indexes the test definition and returns a codec bound
// to it.
func NewSessionCodec(test *models.AssessmentTest) *SessionCodec {
	return &SessionCodec{test: test, seeker: runtime.NewSeeker(test)}
}

// ===== ENCODING =====

// Encode serializes the full session graph: route, item sessions,
// test-level outcomes, duration store and pending responses.
func (c *SessionCodec) Encode(s *runtime.AssessmentTestSession) ([]byte, error) {
	w := NewWriter()

	w.WriteUint8(FormatVersion)
	if FormatVersion >= versionWithBranch {
		w.WriteString(BranchTag)
	}
	w.WriteUint8(uint8(s.State))
	w.WriteInt32(int32(s.Route.Position()))

	w.WriteBool(s.TimeReference != nil)
	if s.TimeReference != nil {
		w.WriteTime(*s.TimeReference)
	}

	w.WriteUint16(uint16(len(s.VisitedTestParts)))
	for _, id := range s.VisitedTestParts {
		w.WriteString(id)
	}

	w.WriteUint32(uint32(len(s.Path)))
	for _, p := range s.Path {
		w.WriteInt32(int32(p))
	}

	w.WriteUint16(s.Config)

	if err := c.encodeRoute(w, s); err != nil {
		return nil, err
	}

	for _, name := range s.OutcomeNames() {
		if err := WriteValue(w, s.Outcome(name).Value); err != nil {
			return nil, fmt.Errorf("encoding outcome %s: %w", name, err)
		}
	}

	durations := s.Durations()
	names := make([]string, 0, len(durations))
	for name := range durations {
		names = append(names, name)
	}
	sort.Strings(names)
	w.WriteUint16(uint16(len(names)))
	for _, name := range names {
		w.WriteString(name)
		w.WriteDuration(durations[name])
	}

	w.WriteTime(s.LastProcessingTime)
	return w.Bytes(), nil
}

func (c *SessionCodec) encodeRoute(w *Writer, s *runtime.AssessmentTestSession) error {
	items := s.Route.Items()
	w.WriteUint32(uint32(len(items)))
	for i, ri := range items {
		if err := c.encodeRouteItem(w, s, ri); err != nil {
			return fmt.Errorf("encoding route item %d: %w", i, err)
		}
	}
	return nil
}

func (c *SessionCodec) encodeRouteItem(w *Writer, s *runtime.AssessmentTestSession, ri *runtime.RouteItem) error {
	w.WriteInt32(int32(ri.Occurrence))

	refPos, err := c.seeker.Position(ri.ItemRef)
	if err != nil {
		return fmt.Errorf("item reference %s: %w", ri.ItemRef.Identifier, err)
	}
	w.WriteInt32(int32(refPos))

	partPos, err := c.seeker.Position(ri.TestPart)
	if err != nil {
		return fmt.Errorf("test part %s: %w", ri.TestPart.Identifier, err)
	}
	w.WriteInt32(int32(partPos))

	w.WriteUint8(uint8(len(ri.Sections)))
	for _, sec := range ri.Sections {
		pos, err := c.seeker.Position(sec)
		if err != nil {
			return fmt.Errorf("section %s: %w", sec.Identifier, err)
		}
		w.WriteInt32(int32(pos))
	}

	w.WriteUint8(uint8(len(ri.BranchRules)))
	for _, br := range ri.BranchRules {
		pos, err := c.seeker.Position(br)
		if err != nil {
			return fmt.Errorf("branch rule: %w", err)
		}
		w.WriteInt32(int32(pos))
	}

	w.WriteUint8(uint8(len(ri.PreConditions)))
	for _, pc := range ri.PreConditions {
		pos, err := c.seeker.Position(pc)
		if err != nil {
			return fmt.Errorf("pre-condition: %w", err)
		}
		w.WriteInt32(int32(pos))
	}

	sess, hasSession := s.ItemSession(ri.ItemRef.Identifier, ri.Occurrence)
	w.WriteBool(hasSession)
	if hasSession {
		if err := c.encodeItemSession(w, sess); err != nil {
			return fmt.Errorf("item session %s.%d: %w", ri.ItemRef.Identifier, ri.Occurrence, err)
		}
	}

	lastOcc, tracked := s.LastOccurrenceUpdate(ri.ItemRef.Identifier)
	w.WriteBool(tracked && lastOcc == ri.Occurrence)

	return c.encodePendingFor(w, s, ri)
}

func (c *SessionCodec) encodeItemSession(w *Writer, sess *runtime.AssessmentItemSession) error {
	w.WriteUint8(uint8(sess.State))
	w.WriteUint8(navModeByte(sess.NavigationMode))
	w.WriteUint8(subModeByte(sess.SubmissionMode))
	w.WriteBool(sess.Attempting)
	w.WriteBool(sess.Begun)

	w.WriteBool(sess.ControlRef != nil)
	if sess.ControlRef != nil {
		pos, err := c.seeker.Position(sess.ControlRef)
		if err != nil {
			return fmt.Errorf("session control: %w", err)
		}
		w.WriteInt32(int32(pos))
	}

	w.WriteInt32(int32(sess.NumAttempts))
	w.WriteDuration(sess.Duration)
	w.WriteString(sess.CompletionStatus)

	names := sess.VariableNames()
	w.WriteUint16(uint16(len(names)))
	for _, name := range names {
		v := sess.Lookup(name)
		w.WriteUint8(natureByte(v.Decl.Nature))
		pos, err := c.seeker.Position(v.Decl)
		if err != nil {
			return fmt.Errorf("declaration %s: %w", name, err)
		}
		w.WriteInt32(int32(pos))
		w.WriteBool(v.DefaultOverride != nil)
		w.WriteBool(v.CorrectOverride != nil)
		if err := WriteValue(w, v.Value); err != nil {
			return fmt.Errorf("variable %s: %w", name, err)
		}
		if v.DefaultOverride != nil {
			if err := WriteValue(w, *v.DefaultOverride); err != nil {
				return fmt.Errorf("variable %s default: %w", name, err)
			}
		}
		if v.CorrectOverride != nil {
			if err := WriteValue(w, *v.CorrectOverride); err != nil {
				return fmt.Errorf("variable %s correct response: %w", name, err)
			}
		}
	}

	// Interaction shuffling states; none are tracked by this runtime.
	w.WriteUint8(0)
	return nil
}

func (c *SessionCodec) encodePendingFor(w *Writer, s *runtime.AssessmentTestSession, ri *runtime.RouteItem) error {
	var pending *runtime.PendingResponses
	for _, p := range s.PendingResponseSets() {
		if p.ItemRef == ri.ItemRef && p.Occurrence == ri.Occurrence {
			pending = p
			break
		}
	}
	w.WriteBool(pending != nil)
	if pending == nil {
		return nil
	}

	item := ri.ItemRef.Item
	names := make([]string, 0, len(pending.Responses))
	for name := range pending.Responses {
		names = append(names, name)
	}
	sort.Strings(names)
	w.WriteUint16(uint16(len(names)))
	for _, name := range names {
		decl := item.Declaration(name)
		if decl == nil {
			return fmt.Errorf("pending response %s has no declaration on item %s", name, item.Identifier)
		}
		pos, err := c.seeker.Position(decl)
		if err != nil {
			return fmt.Errorf("pending response %s: %w", name, err)
		}
		w.WriteInt32(int32(pos))
		if err := WriteValue(w, pending.Responses[name]); err != nil {
			return fmt.Errorf("pending response %s: %w", name, err)
		}
	}

	refPos, err := c.seeker.Position(ri.ItemRef)
	if err != nil {
		return err
	}
	w.WriteInt32(int32(refPos))
	w.WriteInt32(int32(pending.Occurrence))
	return nil
}

// ===== DECODING =====

// Decode rebuilds a session from its serialized form against the codec's
// test definition. The processors are re-bound at decode time; they are
// behavior, not state.
func (c *SessionCodec) Decode(data []byte, sessionID string, rp runtime.ResponseProcessor, op runtime.OutcomeProcessor) (*runtime.AssessmentTestSession, error) {
	r := NewReader(data)

	version, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("reading format version: %w", err)
	}
	if version > FormatVersion {
		return nil, fmt.Errorf("format version %d not supported (max %d)", version, FormatVersion)
	}
	if version >= versionWithBranch {
		if _, err := r.ReadString(); err != nil {
			return nil, fmt.Errorf("reading branch tag: %w", err)
		}
	}

	stateByte, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("reading session state: %w", err)
	}
	position, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading route position: %w", err)
	}

	hasTimeRef, err := r.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("reading time reference flag: %w", err)
	}
	session := runtime.NewAssessmentTestSession(sessionID, c.test, runtime.NewRoute(), rp, op)
	session.State = runtime.TestSessionState(stateByte)
	if hasTimeRef {
		t, err := r.ReadTime()
		if err != nil {
			return nil, fmt.Errorf("reading time reference: %w", err)
		}
		session.TimeReference = &t
	}

	partCount, err := r.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("reading visited part count: %w", err)
	}
	for i := uint16(0); i < partCount; i++ {
		id, err := r.ReadString()
		if err != nil {
			return nil, fmt.Errorf("reading visited part %d: %w", i, err)
		}
		session.VisitedTestParts = append(session.VisitedTestParts, id)
	}

	pathCount, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("reading path count: %w", err)
	}
	for i := uint32(0); i < pathCount; i++ {
		p, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("reading path entry %d: %w", i, err)
		}
		session.Path = append(session.Path, int(p))
	}

	if session.Config, err = r.ReadUint16(); err != nil {
		return nil, fmt.Errorf("reading session config: %w", err)
	}

	if err := c.decodeRoute(r, session); err != nil {
		return nil, err
	}
	if err := session.Route.SetPosition(int(position)); err != nil {
		return nil, fmt.Errorf("restoring route position %d: %w", position, err)
	}

	for _, name := range session.OutcomeNames() {
		decl := session.Outcome(name).Decl
		value, err := ReadValue(r, decl.Cardinality, decl.BaseType)
		if err != nil {
			return nil, fmt.Errorf("reading outcome %s: %w", name, err)
		}
		session.Outcome(name).Value = value
	}

	durCount, err := r.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("reading duration count: %w", err)
	}
	for i := uint16(0); i < durCount; i++ {
		name, err := r.ReadString()
		if err != nil {
			return nil, fmt.Errorf("reading duration name %d: %w", i, err)
		}
		d, err := r.ReadDuration()
		if err != nil {
			return nil, fmt.Errorf("reading duration %s: %w", name, err)
		}
		session.SetDuration(name, d)
	}

	if session.LastProcessingTime, err = r.ReadTime(); err != nil {
		return nil, fmt.Errorf("reading last processing time: %w", err)
	}
	return session, nil
}

func (c *SessionCodec) decodeRoute(r *Reader, session *runtime.AssessmentTestSession) error {
	count, err := r.ReadUint32()
	if err != nil {
		return fmt.Errorf("reading route item count: %w", err)
	}
	var pending []*runtime.PendingResponses
	for i := uint32(0); i < count; i++ {
		p, err := c.decodeRouteItem(r, session)
		if err != nil {
			return fmt.Errorf("decoding route item %d: %w", i, err)
		}
		if p != nil {
			pending = append(pending, p)
		}
	}
	session.RestorePending(pending)
	return nil
}

func (c *SessionCodec) decodeRouteItem(r *Reader, session *runtime.AssessmentTestSession) (*runtime.PendingResponses, error) {
	occurrence, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading occurrence: %w", err)
	}
	refPos, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading item reference position: %w", err)
	}
	ref, err := c.seeker.ItemRefAt(int(refPos))
	if err != nil {
		return nil, fmt.Errorf("resolving item reference: %w", err)
	}
	partPos, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading test part position: %w", err)
	}
	part, err := c.seeker.TestPartAt(int(partPos))
	if err != nil {
		return nil, fmt.Errorf("resolving test part: %w", err)
	}

	secCount, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("reading section count: %w", err)
	}
	sections := make([]*models.AssessmentSection, secCount)
	for i := range sections {
		pos, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("reading section position: %w", err)
		}
		if sections[i], err = c.seeker.SectionAt(int(pos)); err != nil {
			return nil, fmt.Errorf("resolving section: %w", err)
		}
	}

	ri := runtime.NewRouteItem(ref, sections, part)

	brCount, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("reading branch rule count: %w", err)
	}
	ri.BranchRules = make([]*models.BranchRule, brCount)
	for i := range ri.BranchRules {
		pos, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("reading branch rule position: %w", err)
		}
		if ri.BranchRules[i], err = c.seeker.BranchRuleAt(int(pos)); err != nil {
			return nil, fmt.Errorf("resolving branch rule: %w", err)
		}
	}

	pcCount, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("reading pre-condition count: %w", err)
	}
	ri.PreConditions = make([]*models.PreCondition, pcCount)
	for i := range ri.PreConditions {
		pos, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("reading pre-condition position: %w", err)
		}
		if ri.PreConditions[i], err = c.seeker.PreConditionAt(int(pos)); err != nil {
			return nil, fmt.Errorf("resolving pre-condition: %w", err)
		}
	}

	session.Route.AddRouteItem(ri)
	if ri.Occurrence != int(occurrence) {
		return nil, fmt.Errorf("occurrence mismatch for %s: stream says %d, registration says %d",
			ref.Identifier, occurrence, ri.Occurrence)
	}

	hasSession, err := r.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("reading item session flag: %w", err)
	}
	if hasSession {
		sess := runtime.NewAssessmentItemSession(ri)
		if err := c.decodeItemSession(r, sess); err != nil {
			return nil, fmt.Errorf("item session %s.%d: %w", ref.Identifier, ri.Occurrence, err)
		}
		session.AttachItemSession(sess)
	}

	lastUpdate, err := r.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("reading last occurrence flag: %w", err)
	}
	if lastUpdate {
		session.NotifyLastOccurrenceUpdate(ref.Identifier, ri.Occurrence)
	}

	return c.decodePendingFor(r, ref)
}

func (c *SessionCodec) decodeItemSession(r *Reader, sess *runtime.AssessmentItemSession) error {
	stateByte, err := r.ReadUint8()
	if err != nil {
		return fmt.Errorf("reading state: %w", err)
	}
	sess.State = runtime.ItemSessionState(stateByte)

	navByte, err := r.ReadUint8()
	if err != nil {
		return fmt.Errorf("reading navigation mode: %w", err)
	}
	if sess.NavigationMode, err = navModeFromByte(navByte); err != nil {
		return err
	}
	subByte, err := r.ReadUint8()
	if err != nil {
		return fmt.Errorf("reading submission mode: %w", err)
	}
	if sess.SubmissionMode, err = subModeFromByte(subByte); err != nil {
		return err
	}

	if sess.Attempting, err = r.ReadBool(); err != nil {
		return fmt.Errorf("reading attempting flag: %w", err)
	}
	if sess.Begun, err = r.ReadBool(); err != nil {
		return fmt.Errorf("reading begun flag: %w", err)
	}

	hasControl, err := r.ReadBool()
	if err != nil {
		return fmt.Errorf("reading session control flag: %w", err)
	}
	if hasControl {
		pos, err := r.ReadInt32()
		if err != nil {
			return fmt.Errorf("reading session control position: %w", err)
		}
		ctrl, err := c.seeker.ItemSessionControlAt(int(pos))
		if err != nil {
			return fmt.Errorf("resolving session control: %w", err)
		}
		sess.ControlRef = ctrl
		sess.Control = *ctrl
	}

	attempts, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading attempt count: %w", err)
	}
	sess.NumAttempts = int(attempts)
	if sess.Duration, err = r.ReadDuration(); err != nil {
		return fmt.Errorf("reading duration: %w", err)
	}
	if sess.CompletionStatus, err = r.ReadString(); err != nil {
		return fmt.Errorf("reading completion status: %w", err)
	}

	varCount, err := r.ReadUint16()
	if err != nil {
		return fmt.Errorf("reading variable count: %w", err)
	}
	for i := uint16(0); i < varCount; i++ {
		if err := c.decodeVariable(r, sess); err != nil {
			return fmt.Errorf("variable %d: %w", i, err)
		}
	}

	shuffleCount, err := r.ReadUint8()
	if err != nil {
		return fmt.Errorf("reading shuffling state count: %w", err)
	}
	if shuffleCount != 0 {
		return fmt.Errorf("stream carries %d shuffling states, none supported", shuffleCount)
	}
	return nil
}

func (c *SessionCodec) decodeVariable(r *Reader, sess *runtime.AssessmentItemSession) error {
	if _, err := r.ReadUint8(); err != nil {
		return fmt.Errorf("reading nature tag: %w", err)
	}
	pos, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading declaration position: %w", err)
	}
	decl, err := c.seeker.DeclarationAt(int(pos))
	if err != nil {
		return fmt.Errorf("resolving declaration: %w", err)
	}
	v := sess.Lookup(decl.Identifier)
	if v == nil {
		return fmt.Errorf("declaration %s not present on the item session", decl.Identifier)
	}

	hasDefault, err := r.ReadBool()
	if err != nil {
		return fmt.Errorf("reading default override flag: %w", err)
	}
	hasCorrect, err := r.ReadBool()
	if err != nil {
		return fmt.Errorf("reading correct response override flag: %w", err)
	}
	if v.Value, err = ReadValue(r, decl.Cardinality, decl.BaseType); err != nil {
		return fmt.Errorf("reading value of %s: %w", decl.Identifier, err)
	}
	if hasDefault {
		d, err := ReadValue(r, decl.Cardinality, decl.BaseType)
		if err != nil {
			return fmt.Errorf("reading default of %s: %w", decl.Identifier, err)
		}
		v.DefaultOverride = &d
	}
	if hasCorrect {
		cr, err := ReadValue(r, decl.Cardinality, decl.BaseType)
		if err != nil {
			return fmt.Errorf("reading correct response of %s: %w", decl.Identifier, err)
		}
		v.CorrectOverride = &cr
	}
	return nil
}

func (c *SessionCodec) decodePendingFor(r *Reader, ref *models.AssessmentItemRef) (*runtime.PendingResponses, error) {
	hasPending, err := r.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("reading pending responses flag: %w", err)
	}
	if !hasPending {
		return nil, nil
	}

	varCount, err := r.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("reading pending variable count: %w", err)
	}
	responses := make(map[string]models.Value, varCount)
	for i := uint16(0); i < varCount; i++ {
		pos, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("reading pending declaration position: %w", err)
		}
		decl, err := c.seeker.DeclarationAt(int(pos))
		if err != nil {
			return nil, fmt.Errorf("resolving pending declaration: %w", err)
		}
		value, err := ReadValue(r, decl.Cardinality, decl.BaseType)
		if err != nil {
			return nil, fmt.Errorf("reading pending response %s: %w", decl.Identifier, err)
		}
		responses[decl.Identifier] = value
	}

	refPos, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading pending item reference position: %w", err)
	}
	pendingRef, err := c.seeker.ItemRefAt(int(refPos))
	if err != nil {
		return nil, fmt.Errorf("resolving pending item reference: %w", err)
	}
	if pendingRef != ref {
		return nil, fmt.Errorf("pending responses reference %s, route item is %s", pendingRef.Identifier, ref.Identifier)
	}
	occurrence, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading pending occurrence: %w", err)
	}
	return &runtime.PendingResponses{
		ItemRef:    pendingRef,
		Occurrence: int(occurrence),
		Responses:  responses,
	}, nil
}

// ===== MODE/NATURE TAGS =====

func navModeByte(m models.NavigationMode) uint8 {
	if m == models.NavigationNonLinear {
		return 1
	}
	return 0
}

func navModeFromByte(b uint8) (models.NavigationMode, error) {
	switch b {
	case 0:
		return models.NavigationLinear, nil
	case 1:
		return models.NavigationNonLinear, nil
	}
	return "", fmt.Errorf("unknown navigation mode byte %d", b)
}

func subModeByte(m models.SubmissionMode) uint8 {
	if m == models.SubmissionSimultaneous {
		return 1
	}
	return 0
}

func subModeFromByte(b uint8) (models.SubmissionMode, error) {
	switch b {
	case 0:
		return models.SubmissionIndividual, nil
	case 1:
		return models.SubmissionSimultaneous, nil
	}
	return "", fmt.Errorf("unknown submission mode byte %d", b)
}

func natureByte(n models.VariableNature) uint8 {
	switch n {
	case models.NatureResponse:
		return natureResponse
	case models.NatureTemplate:
		return natureTemplate
	}
	return natureOutcome
}
