package utils_test

import (
	"github.com/mandelsoft/goutils/generics"
	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/fusion/pkg/utils"
)

type object struct {
	Name   string   `json:"name"`
	Values []string `json:"values,omitempty"`
	Flag   bool     `json:"flag,omitempty"`
	Count  *int     `json:"count,omitempty"`
}

var _ = Describe("yaml", func() {
	It("keeps plain scalars as strings", func() {
		var o object
		MustBeSuccessful(utils.UnmarshalYAML([]byte(`
name: Y
values: [n, on, off, yes, NO]
flag: true
count: 3
`), &o))
		Expect(o.Name).To(Equal("Y"))
		Expect(o.Values).To(Equal([]string{"n", "on", "off", "yes", "NO"}))
		Expect(o.Flag).To(BeTrue())
		Expect(o.Count).To(Equal(generics.Pointer(3)))
	})

	It("accepts empty documents", func() {
		o := object{Name: "keep"}
		MustBeSuccessful(utils.UnmarshalYAML([]byte("# nothing\n"), &o))
		Expect(o.Name).To(Equal("keep"))
	})

	It("rejects type mismatches", func() {
		var o object
		Expect(utils.UnmarshalYAML([]byte("name: [a]\n"), &o)).To(HaveOccurred())
	})
})
