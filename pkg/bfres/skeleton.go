package bfres

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// NoParent is the parent index of a root bone.
const NoParent = 0xFFFF

// NoMatrix marks a bone without a smooth or rigid skinning matrix.
const NoMatrix = -1

// SkeletonHeader is the FSKL section header.
type SkeletonHeader struct {
	Magic              string `json:"magic"`
	Flags              uint32 `json:"flags"`
	BoneCount          uint16 `json:"bone_count"`
	SmoothIndexCount   uint16 `json:"smooth_index_count"`
	RigidIndexCount    uint16 `json:"rigid_index_count"`
	BoneDict           Dict   `json:"bone_dict"`
	BonesOffset        int    `json:"bones_offset"`
	SmoothIndexOffset  int    `json:"smooth_index_offset"`
	SmoothMatrixOffset int    `json:"smooth_matrix_offset"`
	UserPointer        uint32 `json:"user_pointer"`
}

// Bone is a decoded bone record. ParentIndex refers to another bone of the
// same skeleton by position; it is never followed while decoding.
type Bone struct {
	Name              string     `json:"name"`
	Index             uint16     `json:"index"`
	ParentIndex       uint16     `json:"parent_index"`
	SmoothMatrixIndex int16      `json:"smooth_matrix_index"`
	RigidMatrixIndex  int16      `json:"rigid_matrix_index"`
	BillboardIndex    int16      `json:"billboard_index"`
	UserDataCount     uint16     `json:"user_data_count"`
	Flags             uint32     `json:"flags"`
	Scale             mgl32.Vec3 `json:"scale"`
	Rotation          mgl32.Vec4 `json:"rotation"`
	Translation       mgl32.Vec3 `json:"translation"`
	UserData          Dict       `json:"user_data_dict"`
}

// HasParent reports whether the bone is attached to another bone.
func (b *Bone) HasParent() bool { return b.ParentIndex != NoParent }

// Quat returns the stored rotation (x, y, z, w) as a quaternion.
func (b *Bone) Quat() mgl32.Quat {
	return mgl32.Quat{W: b.Rotation[3], V: b.Rotation.Vec3()}
}

// LocalMatrix returns translation * rotation * scale.
func (b *Bone) LocalMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(b.Translation[0], b.Translation[1], b.Translation[2])
	r := b.Quat().Normalize().Mat4()
	s := mgl32.Scale3D(b.Scale[0], b.Scale[1], b.Scale[2])
	return t.Mul4(r).Mul4(s)
}

// Skeleton is a decoded FSKL section.
type Skeleton struct {
	Header SkeletonHeader `json:"header"`
	Bones  []*Bone        `json:"bones"`

	// MatrixToBone maps smooth then rigid skinning matrix slots to bone indices.
	MatrixToBone []uint16 `json:"matrix_to_bone"`
}

// Bone returns the bone with the given name, or nil.
func (s *Skeleton) Bone(name string) *Bone {
	for _, b := range s.Bones {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// WorldMatrices composes each bone's local matrix with its ancestors'.
// Parent chains are walked iteratively; a chain longer than the bone count
// means the hierarchy has a cycle and is reported as ErrInvalidCount.
func (s *Skeleton) WorldMatrices() ([]mgl32.Mat4, error) {
	out := make([]mgl32.Mat4, len(s.Bones))
	for i, b := range s.Bones {
		m := b.LocalMatrix()
		parent := b.ParentIndex
		for depth := 0; parent != NoParent; depth++ {
			if depth >= len(s.Bones) {
				return nil, errors.Wrapf(ErrInvalidCount, "bone %q: parent chain does not terminate", b.Name)
			}
			if int(parent) >= len(s.Bones) {
				return nil, errors.Wrapf(ErrInvalidCount, "bone %q: parent index %d out of range", b.Name, parent)
			}
			p := s.Bones[parent]
			m = p.LocalMatrix().Mul4(m)
			parent = p.ParentIndex
		}
		out[i] = m
	}
	return out, nil
}

func decodeSkeleton(buf []byte, off int) (*Skeleton, error) {
	c := NewCursor(buf, off)
	h := SkeletonHeader{
		Magic:            c.Chars(4),
		Flags:            c.U32(),
		BoneCount:        c.U16(),
		SmoothIndexCount: c.U16(),
		RigidIndexCount:  c.U16(),
	}
	c.Skip(2)
	boneDict := c.Offset()
	h.BonesOffset = c.Offset()
	h.SmoothIndexOffset = c.Offset()
	h.SmoothMatrixOffset = c.Offset()
	h.UserPointer = c.U32()
	if err := c.Err(); err != nil {
		return nil, errors.Wrap(err, "skeleton header")
	}

	var err error
	if h.BoneDict, err = ReadDict(buf, boneDict); err != nil {
		return nil, errors.Wrap(err, "bone dictionary")
	}

	s := &Skeleton{Header: h, Bones: make([]*Bone, 0, len(h.BoneDict))}
	for _, e := range h.BoneDict {
		b, err := decodeBone(buf, c.At(e.Offset))
		if err != nil {
			return nil, errors.Wrapf(err, "bone %q", e.Name)
		}
		s.Bones = append(s.Bones, b)
	}

	if n := int(h.SmoothIndexCount) + int(h.RigidIndexCount); n > 0 && h.SmoothIndexOffset != NullOffset {
		ic := c.At(h.SmoothIndexOffset)
		s.MatrixToBone = make([]uint16, n)
		for i := range s.MatrixToBone {
			s.MatrixToBone[i] = ic.U16()
		}
		if err := ic.Err(); err != nil {
			return nil, errors.Wrap(err, "skinning matrix index table")
		}
	}
	return s, nil
}

func decodeBone(buf []byte, c *Cursor) (*Bone, error) {
	b := &Bone{
		Name:              c.StringRef(),
		Index:             c.U16(),
		ParentIndex:       c.U16(),
		SmoothMatrixIndex: c.I16(),
		RigidMatrixIndex:  c.I16(),
		BillboardIndex:    c.I16(),
		UserDataCount:     c.U16(),
		Flags:             c.U32(),
		Scale:             mgl32.Vec3{c.F32(), c.F32(), c.F32()},
		Rotation:          mgl32.Vec4{c.F32(), c.F32(), c.F32(), c.F32()},
		Translation:       mgl32.Vec3{c.F32(), c.F32(), c.F32()},
	}
	userData := c.Offset()
	if err := c.Err(); err != nil {
		return nil, err
	}
	var err error
	if b.UserData, err = ReadDict(buf, userData); err != nil {
		return nil, errors.Wrap(err, "user data dictionary")
	}
	return b, nil
}
