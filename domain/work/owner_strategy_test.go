package work_test

import (
	"encoding/json"
	"testing"

	"flowcase/bizerror"
	"flowcase/domain"
	"flowcase/domain/work"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestOwnerStrategy(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Owner Strategy Suite")
}

var _ = Describe("ResolveOwner", func() {
	item := &domain.WorkItem{ID: 1, CurrentOwnerID: types.ID(100), CreatorID: types.ID(200)}

	It("should keep the current owner under KEEP", func() {
		owner, err := work.ResolveOwner(item, &domain.TransitionRule{OwnerStrategy: domain.OwnerKeep}, nil)
		Expect(err).To(BeNil())
		Expect(owner).To(Equal(types.ID(100)))
	})

	It("should return the creator under TO_CREATOR", func() {
		owner, err := work.ResolveOwner(item, &domain.TransitionRule{OwnerStrategy: domain.OwnerToCreator}, nil)
		Expect(err).To(BeNil())
		Expect(owner).To(Equal(types.ID(200)))
	})

	It("should take the target user from the form data under TO_SPECIFIC_USER", func() {
		rule := &domain.TransitionRule{OwnerStrategy: domain.OwnerToSpecificUser}

		owner, err := work.ResolveOwner(item, rule, map[string]interface{}{domain.FieldTargetOwner: "300"})
		Expect(err).To(BeNil())
		Expect(owner).To(Equal(types.ID(300)))

		// json decoded bodies carry numbers as float64 or json.Number
		owner, err = work.ResolveOwner(item, rule, map[string]interface{}{domain.FieldTargetOwner: float64(301)})
		Expect(err).To(BeNil())
		Expect(owner).To(Equal(types.ID(301)))

		owner, err = work.ResolveOwner(item, rule, map[string]interface{}{domain.FieldTargetOwner: json.Number("302")})
		Expect(err).To(BeNil())
		Expect(owner).To(Equal(types.ID(302)))

		owner, err = work.ResolveOwner(item, rule, map[string]interface{}{domain.FieldTargetOwner: types.ID(303)})
		Expect(err).To(BeNil())
		Expect(owner).To(Equal(types.ID(303)))
	})

	It("should demand a usable target user under TO_SPECIFIC_USER", func() {
		rule := &domain.TransitionRule{OwnerStrategy: domain.OwnerToSpecificUser}
		wanted := &bizerror.ErrMissingRequiredField{Field: domain.FieldTargetOwner}

		_, err := work.ResolveOwner(item, rule, nil)
		Expect(err).To(Equal(wanted))
		_, err = work.ResolveOwner(item, rule, map[string]interface{}{})
		Expect(err).To(Equal(wanted))
		_, err = work.ResolveOwner(item, rule, map[string]interface{}{domain.FieldTargetOwner: "not a number"})
		Expect(err).To(Equal(wanted))
		_, err = work.ResolveOwner(item, rule, map[string]interface{}{domain.FieldTargetOwner: "0"})
		Expect(err).To(Equal(wanted))
		_, err = work.ResolveOwner(item, rule, map[string]interface{}{domain.FieldTargetOwner: true})
		Expect(err).To(Equal(wanted))
	})

	It("should fall back to the current owner on an unknown strategy", func() {
		owner, err := work.ResolveOwner(item, &domain.TransitionRule{OwnerStrategy: "ROUND_ROBIN"}, nil)
		Expect(err).To(BeNil())
		Expect(owner).To(Equal(types.ID(100)))
	})
})
