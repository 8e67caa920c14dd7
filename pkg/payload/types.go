// Package payload defines the closed family of message-content records
// exchanged between a maidnode client and the vault-side personas it
// addresses, plus the reply unions built on top of them.
//
// Every record here is a plain value type with a total serialization
// round-trip (Serialise/Parse) and structural equality:
// parse(serialise(p)) == p. Plain (non-union) records are encoded with the
// reflective github.com/rasky/go-xdr codec; discriminated unions and
// optional-field invariants are hand-rolled on top of pkg/envelope/xdr,
// since the reflective codec cannot express them.
package payload

import (
	"bytes"
	"fmt"

	goxdr "github.com/rasky/go-xdr/xdr2"

	xdrutil "github.com/marmos91/maidnode/pkg/envelope/xdr"
	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/merrors"
)

// Record is implemented by every payload in the closed family.
type Record interface {
	// Serialise encodes the record to its wire form.
	Serialise() ([]byte, error)
}

// marshalPlain encodes v with the reflective XDR codec. Used by record
// types with no optional fields or discriminated unions.
func marshalPlain(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := goxdr.Marshal(&buf, v); err != nil {
		return nil, merrors.Wrap(merrors.ErrParse, "xdr marshal", err)
	}
	return buf.Bytes(), nil
}

// unmarshalPlain decodes data into v with the reflective XDR codec.
func unmarshalPlain(data []byte, v interface{}) error {
	if _, err := goxdr.Unmarshal(bytes.NewReader(data), v); err != nil {
		return merrors.Wrap(merrors.ErrParse, "xdr unmarshal", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Empty
// ---------------------------------------------------------------------------

// Empty is the zero-byte marker payload used by operations that carry no
// arguments (CreateAccount, RemoveAccount).
type Empty struct{}

func (Empty) Serialise() ([]byte, error) { return []byte{}, nil }

// ParseEmpty parses the zero-byte marker. Any non-empty input is rejected:
// an Empty payload has nothing to disagree about, so extra bytes mean the
// sender and receiver disagree on message type.
func ParseEmpty(data []byte) (Empty, error) {
	if len(data) != 0 {
		return Empty{}, merrors.New(merrors.ErrParse, "Empty: unexpected trailing bytes")
	}
	return Empty{}, nil
}

// ---------------------------------------------------------------------------
// AvailableSize
// ---------------------------------------------------------------------------

// AvailableSize reports remaining storage capacity offered by a Pmid.
type AvailableSize struct {
	Size uint64
}

func (a AvailableSize) Serialise() ([]byte, error) { return marshalPlain(a) }

func ParseAvailableSize(data []byte) (AvailableSize, error) {
	var a AvailableSize
	err := unmarshalPlain(data, &a)
	return a, err
}

// ---------------------------------------------------------------------------
// DataName
// ---------------------------------------------------------------------------

// DataName identifies a piece of network data by family tag and content
// address. DataNames are totally ordered by (Type, RawName).
type DataName struct {
	Type    uint32 // ids.DataTagValue
	RawName ids.Identity
}

func (d DataName) Serialise() ([]byte, error) { return marshalPlain(d) }

func ParseDataName(data []byte) (DataName, error) {
	var d DataName
	err := unmarshalPlain(data, &d)
	return d, err
}

// Tag returns the data name's family tag as a typed DataTagValue.
func (d DataName) Tag() ids.DataTagValue { return ids.DataTagValue(d.Type) }

// Compare gives the total order over DataName required by the data model:
// first by Type, then by RawName. It returns <0, 0, >0 like bytes.Compare.
func (d DataName) Compare(other DataName) int {
	if d.Type != other.Type {
		if d.Type < other.Type {
			return -1
		}
		return 1
	}
	return bytes.Compare(d.RawName[:], other.RawName[:])
}

// ---------------------------------------------------------------------------
// Version / DataNameAndVersion / DataNameOldNewVersion
// ---------------------------------------------------------------------------

// Version identifies a single point in a structured data object's linear
// version history.
type Version struct {
	ID    ids.Identity
	Index uint64
}

func (v Version) Serialise() ([]byte, error) { return marshalPlain(v) }

func ParseVersion(data []byte) (Version, error) {
	var v Version
	err := unmarshalPlain(data, &v)
	return v, err
}

// DataNameAndVersion pairs a data name with a single version reference,
// the request payload for GetBranch.
type DataNameAndVersion struct {
	Name    DataName
	Version Version
}

func (d DataNameAndVersion) Serialise() ([]byte, error) { return marshalPlain(d) }

func ParseDataNameAndVersion(data []byte) (DataNameAndVersion, error) {
	var d DataNameAndVersion
	err := unmarshalPlain(data, &d)
	return d, err
}

// DataNameOldNewVersion is the request payload for PutVersion: a
// compare-and-swap of the structured data's tip version.
type DataNameOldNewVersion struct {
	Name       DataName
	OldVersion Version
	NewVersion Version
}

func (d DataNameOldNewVersion) Serialise() ([]byte, error) { return marshalPlain(d) }

func ParseDataNameOldNewVersion(data []byte) (DataNameOldNewVersion, error) {
	var d DataNameOldNewVersion
	err := unmarshalPlain(data, &d)
	return d, err
}

// ---------------------------------------------------------------------------
// DataNameAndContent / DataNameAndRandomString / DataNameAndCost / DataNameAndSize
// ---------------------------------------------------------------------------

// DataNameAndContent carries a data name and its non-empty content bytes;
// this is both the Put request payload and the success arm of
// DataNameAndContentOrReturnCode.
type DataNameAndContent struct {
	Name    DataName
	Content []byte
}

func (d DataNameAndContent) Serialise() ([]byte, error) {
	if len(d.Content) == 0 {
		return nil, merrors.New(merrors.ErrParse, "DataNameAndContent: content must be non-empty")
	}
	return marshalPlain(d)
}

func ParseDataNameAndContent(data []byte) (DataNameAndContent, error) {
	var d DataNameAndContent
	if err := unmarshalPlain(data, &d); err != nil {
		return DataNameAndContent{}, err
	}
	if len(d.Content) == 0 {
		return DataNameAndContent{}, merrors.New(merrors.ErrParse, "DataNameAndContent: content must be non-empty")
	}
	return d, nil
}

// DataNameAndRandomString carries a data name and a non-empty random nonce,
// used by challenge/response style operations against a Pmid.
type DataNameAndRandomString struct {
	Name   DataName
	Random []byte
}

func (d DataNameAndRandomString) Serialise() ([]byte, error) {
	if len(d.Random) == 0 {
		return nil, merrors.New(merrors.ErrParse, "DataNameAndRandomString: random must be non-empty")
	}
	return marshalPlain(d)
}

func ParseDataNameAndRandomString(data []byte) (DataNameAndRandomString, error) {
	var d DataNameAndRandomString
	if err := unmarshalPlain(data, &d); err != nil {
		return DataNameAndRandomString{}, err
	}
	if len(d.Random) == 0 {
		return DataNameAndRandomString{}, merrors.New(merrors.ErrParse, "DataNameAndRandomString: random must be non-empty")
	}
	return d, nil
}

// DataNameAndCost carries a data name and an associated signed cost value.
type DataNameAndCost struct {
	Name DataName
	Cost int32
}

func (d DataNameAndCost) Serialise() ([]byte, error) { return marshalPlain(d) }

func ParseDataNameAndCost(data []byte) (DataNameAndCost, error) {
	var d DataNameAndCost
	err := unmarshalPlain(data, &d)
	return d, err
}

// DataNameAndSize carries a data name and an associated signed size value.
type DataNameAndSize struct {
	Name DataName
	Size int32
}

func (d DataNameAndSize) Serialise() ([]byte, error) { return marshalPlain(d) }

func ParseDataNameAndSize(data []byte) (DataNameAndSize, error) {
	var d DataNameAndSize
	err := unmarshalPlain(data, &d)
	return d, err
}

// ---------------------------------------------------------------------------
// DataAndPmidHint
// ---------------------------------------------------------------------------

// DataAndPmidHint is the Put request payload: the data to store plus a hint
// at which Pmid (storage node) should hold it.
type DataAndPmidHint struct {
	Data     DataNameAndContent
	PmidHint ids.Identity
}

func (d DataAndPmidHint) Serialise() ([]byte, error) {
	if len(d.Data.Content) == 0 {
		return nil, merrors.New(merrors.ErrParse, "DataAndPmidHint: content must be non-empty")
	}
	return marshalPlain(d)
}

func ParseDataAndPmidHint(data []byte) (DataAndPmidHint, error) {
	var d DataAndPmidHint
	if err := unmarshalPlain(data, &d); err != nil {
		return DataAndPmidHint{}, err
	}
	if len(d.Data.Content) == 0 {
		return DataAndPmidHint{}, merrors.New(merrors.ErrParse, "DataAndPmidHint: content must be non-empty")
	}
	return d, nil
}

// ---------------------------------------------------------------------------
// DataNameAndContentOrCheckResult (discriminated union, hand-rolled)
// ---------------------------------------------------------------------------

// CheckResultSize is the width, in bytes, of a DataNameAndContentOrCheckResult
// integrity digest.
const CheckResultSize = 64

const (
	variantContent     uint32 = 0
	variantCheckResult uint32 = 1
)

// DataNameAndContentOrCheckResult carries exactly one of Content or
// CheckResult for a given data name. Constructing or parsing a value with
// both, or neither, populated is an invariant violation.
type DataNameAndContentOrCheckResult struct {
	Name        DataName
	Content     []byte
	CheckResult *[CheckResultSize]byte
}

// exactlyOne reports whether exactly one of a, b holds: the mutual-exclusion
// check every optional-field union in this package enforces on serialise.
func exactlyOne(a, b bool) bool {
	return a != b
}

func (d DataNameAndContentOrCheckResult) Serialise() ([]byte, error) {
	hasContent := len(d.Content) > 0
	hasCheck := d.CheckResult != nil
	if !exactlyOne(hasContent, hasCheck) {
		return nil, merrors.New(merrors.ErrParse,
			"DataNameAndContentOrCheckResult: exactly one of content/check_result must be set")
	}

	var buf bytes.Buffer
	nameBytes, err := d.Name.Serialise()
	if err != nil {
		return nil, err
	}
	if err := xdrutil.WriteOpaque(&buf, nameBytes); err != nil {
		return nil, err
	}

	if hasContent {
		if err := xdrutil.EncodeUnionDiscriminant(&buf, variantContent); err != nil {
			return nil, err
		}
		if err := xdrutil.WriteOpaque(&buf, d.Content); err != nil {
			return nil, err
		}
	} else {
		if err := xdrutil.EncodeUnionDiscriminant(&buf, variantCheckResult); err != nil {
			return nil, err
		}
		if err := xdrutil.WriteOpaque(&buf, d.CheckResult[:]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func ParseDataNameAndContentOrCheckResult(data []byte) (DataNameAndContentOrCheckResult, error) {
	r := bytes.NewReader(data)
	nameBytes, err := xdrutil.DecodeOpaque(r)
	if err != nil {
		return DataNameAndContentOrCheckResult{}, merrors.Wrap(merrors.ErrParse, "decode name", err)
	}
	name, err := ParseDataName(nameBytes)
	if err != nil {
		return DataNameAndContentOrCheckResult{}, err
	}

	disc, err := xdrutil.DecodeUnionDiscriminant(r)
	if err != nil {
		return DataNameAndContentOrCheckResult{}, merrors.Wrap(merrors.ErrParse, "decode discriminant", err)
	}

	switch disc {
	case variantContent:
		content, err := xdrutil.DecodeOpaque(r)
		if err != nil {
			return DataNameAndContentOrCheckResult{}, merrors.Wrap(merrors.ErrParse, "decode content", err)
		}
		if len(content) == 0 {
			return DataNameAndContentOrCheckResult{}, merrors.New(merrors.ErrParse, "content arm must be non-empty")
		}
		return DataNameAndContentOrCheckResult{Name: name, Content: content}, nil
	case variantCheckResult:
		raw, err := xdrutil.DecodeOpaque(r)
		if err != nil {
			return DataNameAndContentOrCheckResult{}, merrors.Wrap(merrors.ErrParse, "decode check result", err)
		}
		if len(raw) != CheckResultSize {
			return DataNameAndContentOrCheckResult{}, merrors.New(merrors.ErrParse,
				fmt.Sprintf("check_result must be %d bytes, got %d", CheckResultSize, len(raw)))
		}
		var digest [CheckResultSize]byte
		copy(digest[:], raw)
		return DataNameAndContentOrCheckResult{Name: name, CheckResult: &digest}, nil
	default:
		return DataNameAndContentOrCheckResult{}, merrors.New(merrors.ErrParse, fmt.Sprintf("unknown union arm %d", disc))
	}
}

// ---------------------------------------------------------------------------
// PmidHealth
// ---------------------------------------------------------------------------

// PmidHealth carries an opaque, pre-serialised health report for a Pmid
// (storage node). The report's internal structure is owned by the
// vault-side persona that produces it; the client treats it as opaque bytes.
type PmidHealth struct {
	Serialised []byte
}

func (p PmidHealth) Serialise() ([]byte, error) { return marshalPlain(p) }

func ParsePmidHealth(data []byte) (PmidHealth, error) {
	var p PmidHealth
	err := unmarshalPlain(data, &p)
	return p, err
}

// ---------------------------------------------------------------------------
// PmidRegistration
// ---------------------------------------------------------------------------

// PmidRegistration is the request payload for Register/UnregisterPmid. It is
// stamped by the injected signing identity (pkg/identity) before dispatch.
type PmidRegistration struct {
	MaidName     ids.Identity
	PmidName     ids.Identity
	Unregister   bool
	SignedClaims []byte // compact JWS stamped by the signing identity
}

func (p PmidRegistration) Serialise() ([]byte, error) { return marshalPlain(p) }

func ParsePmidRegistration(data []byte) (PmidRegistration, error) {
	var p PmidRegistration
	err := unmarshalPlain(data, &p)
	return p, err
}

// ---------------------------------------------------------------------------
// ReturnCode
// ---------------------------------------------------------------------------

// ErrorValue is the closed set of domain failure codes a vault persona can
// report back on the wire. It is distinct from merrors.Code: ErrorValue is
// the wire representation, merrors.Code is what a completed client
// operation surfaces to its caller. ErrorCode (below) maps one to the other.
type ErrorValue uint32

const (
	// ErrValueOK marks a ReturnCode carrying no failure: the distinguished
	// "ok" bucket for operations whose reply payload is a bare ReturnCode
	// rather than a {Value, ReturnCode} union (PutVersion, CreateAccount,
	// RemoveAccount, Register/UnregisterPmid).
	ErrValueOK ErrorValue = iota
	// ErrValueNoSuchElement mirrors merrors.ErrNoSuchElement on the wire.
	ErrValueNoSuchElement
	// ErrValueInvalidParameter mirrors merrors.ErrInvalidParameter on the wire.
	ErrValueInvalidParameter
	// ErrValueUnknown carries a vault-side code this client does not
	// recognise; Detail holds whatever diagnostic text the vault sent.
	ErrValueUnknown
)

func (v ErrorValue) String() string {
	switch v {
	case ErrValueOK:
		return "OK"
	case ErrValueNoSuchElement:
		return "NoSuchElement"
	case ErrValueInvalidParameter:
		return "InvalidParameter"
	case ErrValueUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("ErrorValue(%d)", uint32(v))
	}
}

// ToCode maps the wire ErrorValue onto the client-facing merrors.Code.
func (v ErrorValue) ToCode() merrors.Code {
	switch v {
	case ErrValueNoSuchElement:
		return merrors.ErrNoSuchElement
	case ErrValueInvalidParameter:
		return merrors.ErrInvalidParameter
	default:
		return merrors.ErrUnknown
	}
}

// ReturnCode is the failure arm of both reply unions, and is also used
// bare as the entire reply payload for operations whose success case
// carries no data of its own (PutVersion, CreateAccount, RemoveAccount,
// Register/UnregisterPmid): ErrValueOK stands in for the "Value" arm those
// operations otherwise have nothing to return.
type ReturnCode struct {
	Value  ErrorValue
	Detail string
}

func (r ReturnCode) Serialise() ([]byte, error) { return marshalPlain(r) }

func ParseReturnCode(data []byte) (ReturnCode, error) {
	var r ReturnCode
	err := unmarshalPlain(data, &r)
	return r, err
}

// OK is the canonical success value for an operation whose reply payload is
// a bare ReturnCode.
func OK() ReturnCode { return ReturnCode{Value: ErrValueOK} }

// IsSuccess reports whether this bare ReturnCode reply represents success,
// the predicate the aggregator's quorum logic is parameterised with for
// operations without a richer reply union.
func (r ReturnCode) IsSuccess() bool { return r.Value == ErrValueOK }

// ErrorCode returns the merrors.Code this reply maps to. It panics if
// called on a successful ReturnCode; callers must check IsSuccess first.
func (r ReturnCode) ErrorCode() merrors.Code {
	if r.Value == ErrValueOK {
		panic("payload: ErrorCode called on successful ReturnCode")
	}
	return r.Value.ToCode()
}

// ---------------------------------------------------------------------------
// DataNameAndContentOrReturnCode (reply union, hand-rolled)
// ---------------------------------------------------------------------------

const (
	replyArmSuccess uint32 = 0
	replyArmFailure uint32 = 1
)

// DataNameAndContentOrReturnCode is the reply payload for Get: either the
// requested content, or a ReturnCode explaining why it could not be
// delivered. Exactly one of Content/Code is populated.
type DataNameAndContentOrReturnCode struct {
	Content *DataNameAndContent
	Code    *ReturnCode
}

// IsSuccess reports whether this reply represents a successful fetch, the
// predicate the aggregator's quorum logic is parameterised with.
func (r DataNameAndContentOrReturnCode) IsSuccess() bool { return r.Content != nil }

// ErrorCode returns the merrors.Code this reply maps to. It panics if
// called on a successful reply; callers must check IsSuccess first.
func (r DataNameAndContentOrReturnCode) ErrorCode() merrors.Code {
	if r.Code == nil {
		panic("payload: ErrorCode called on successful DataNameAndContentOrReturnCode")
	}
	return r.Code.Value.ToCode()
}

func (r DataNameAndContentOrReturnCode) Serialise() ([]byte, error) {
	if !exactlyOne(r.Content != nil, r.Code != nil) {
		return nil, merrors.New(merrors.ErrParse,
			"DataNameAndContentOrReturnCode: exactly one of content/code must be set")
	}
	var buf bytes.Buffer
	if r.Content != nil {
		if err := xdrutil.EncodeUnionDiscriminant(&buf, replyArmSuccess); err != nil {
			return nil, err
		}
		body, err := r.Content.Serialise()
		if err != nil {
			return nil, err
		}
		if err := xdrutil.WriteOpaque(&buf, body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if err := xdrutil.EncodeUnionDiscriminant(&buf, replyArmFailure); err != nil {
		return nil, err
	}
	body, err := r.Code.Serialise()
	if err != nil {
		return nil, err
	}
	if err := xdrutil.WriteOpaque(&buf, body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ParseDataNameAndContentOrReturnCode(data []byte) (DataNameAndContentOrReturnCode, error) {
	r := bytes.NewReader(data)
	disc, err := xdrutil.DecodeUnionDiscriminant(r)
	if err != nil {
		return DataNameAndContentOrReturnCode{}, merrors.Wrap(merrors.ErrParse, "decode discriminant", err)
	}
	body, err := xdrutil.DecodeOpaque(r)
	if err != nil {
		return DataNameAndContentOrReturnCode{}, merrors.Wrap(merrors.ErrParse, "decode body", err)
	}
	switch disc {
	case replyArmSuccess:
		content, err := ParseDataNameAndContent(body)
		if err != nil {
			return DataNameAndContentOrReturnCode{}, err
		}
		return DataNameAndContentOrReturnCode{Content: &content}, nil
	case replyArmFailure:
		code, err := ParseReturnCode(body)
		if err != nil {
			return DataNameAndContentOrReturnCode{}, err
		}
		return DataNameAndContentOrReturnCode{Code: &code}, nil
	default:
		return DataNameAndContentOrReturnCode{}, merrors.New(merrors.ErrParse, fmt.Sprintf("unknown reply arm %d", disc))
	}
}

// ---------------------------------------------------------------------------
// StructuredDataVersions / StructuredDataNameAndContentOrReturnCode
// ---------------------------------------------------------------------------

// StructuredDataVersions is the success arm of a structured-data reply: the
// data name plus its known version history (GetVersions) or a single
// resolved branch (GetBranch, where Versions has exactly one entry).
type StructuredDataVersions struct {
	Name     DataName
	Versions []Version
}

func (s StructuredDataVersions) Serialise() ([]byte, error) { return marshalPlain(s) }

func ParseStructuredDataVersions(data []byte) (StructuredDataVersions, error) {
	var s StructuredDataVersions
	err := unmarshalPlain(data, &s)
	return s, err
}

// StructuredDataNameAndContentOrReturnCode is the reply payload for
// GetVersions/GetBranch: either the resolved version set, or a ReturnCode.
type StructuredDataNameAndContentOrReturnCode struct {
	Versions *StructuredDataVersions
	Code     *ReturnCode
}

// IsSuccess reports whether this reply represents a successful fetch.
func (r StructuredDataNameAndContentOrReturnCode) IsSuccess() bool { return r.Versions != nil }

// ErrorCode returns the merrors.Code this reply maps to. It panics if
// called on a successful reply; callers must check IsSuccess first.
func (r StructuredDataNameAndContentOrReturnCode) ErrorCode() merrors.Code {
	if r.Code == nil {
		panic("payload: ErrorCode called on successful StructuredDataNameAndContentOrReturnCode")
	}
	return r.Code.Value.ToCode()
}

func (r StructuredDataNameAndContentOrReturnCode) Serialise() ([]byte, error) {
	if !exactlyOne(r.Versions != nil, r.Code != nil) {
		return nil, merrors.New(merrors.ErrParse,
			"StructuredDataNameAndContentOrReturnCode: exactly one of versions/code must be set")
	}
	var buf bytes.Buffer
	if r.Versions != nil {
		if err := xdrutil.EncodeUnionDiscriminant(&buf, replyArmSuccess); err != nil {
			return nil, err
		}
		body, err := r.Versions.Serialise()
		if err != nil {
			return nil, err
		}
		if err := xdrutil.WriteOpaque(&buf, body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if err := xdrutil.EncodeUnionDiscriminant(&buf, replyArmFailure); err != nil {
		return nil, err
	}
	body, err := r.Code.Serialise()
	if err != nil {
		return nil, err
	}
	if err := xdrutil.WriteOpaque(&buf, body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ParseStructuredDataNameAndContentOrReturnCode(data []byte) (StructuredDataNameAndContentOrReturnCode, error) {
	r := bytes.NewReader(data)
	disc, err := xdrutil.DecodeUnionDiscriminant(r)
	if err != nil {
		return StructuredDataNameAndContentOrReturnCode{}, merrors.Wrap(merrors.ErrParse, "decode discriminant", err)
	}
	body, err := xdrutil.DecodeOpaque(r)
	if err != nil {
		return StructuredDataNameAndContentOrReturnCode{}, merrors.Wrap(merrors.ErrParse, "decode body", err)
	}
	switch disc {
	case replyArmSuccess:
		versions, err := ParseStructuredDataVersions(body)
		if err != nil {
			return StructuredDataNameAndContentOrReturnCode{}, err
		}
		return StructuredDataNameAndContentOrReturnCode{Versions: &versions}, nil
	case replyArmFailure:
		code, err := ParseReturnCode(body)
		if err != nil {
			return StructuredDataNameAndContentOrReturnCode{}, err
		}
		return StructuredDataNameAndContentOrReturnCode{Code: &code}, nil
	default:
		return StructuredDataNameAndContentOrReturnCode{}, merrors.New(merrors.ErrParse, fmt.Sprintf("unknown reply arm %d", disc))
	}
}
