package skillbook_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
	"github.com/KirkDiggler/hall-runner/internal/services/skillbook"
)

type SkillBookTestSuite struct {
	suite.Suite
	book *skillbook.Book
}

func TestSkillBookSuite(t *testing.T) {
	suite.Run(t, new(SkillBookTestSuite))
}

func (s *SkillBookTestSuite) SetupTest() {
	book, err := skillbook.Default()
	s.Require().NoError(err)
	s.book = book
}

func (s *SkillBookTestSuite) TestDefaultCareers() {
	s.Assert().Equal([]string{"剑尊", "剑神", "天煞", "武神", "英豪", "邪皇"}, s.book.Careers())
}

func (s *SkillBookTestSuite) TestCareerDefault() {
	got, ok := s.book.Lookup("武神", hall.NameFengShen, 1)
	s.Require().True(ok)
	s.Assert().Equal(&hall.SkillOverride{Primary: "力破千钧0天", Support: []string{"伏虎势"}}, got)
}

func (s *SkillBookTestSuite) TestFloorEntryIsExact() {
	got, ok := s.book.Lookup("邪皇", hall.NameSanGuo, 27)
	s.Require().True(ok)
	s.Assert().Equal("穿心0天", got.Primary)
	s.Assert().Equal([]string{"怒澜式", "蚀蛊式"}, got.Support)

	// floor 26 has no entry and falls back to the default
	got, ok = s.book.Lookup("邪皇", hall.NameSanGuo, 26)
	s.Require().True(ok)
	s.Assert().Equal("破甲式0人", got.Primary)
}

func (s *SkillBookTestSuite) TestUnknownCareer() {
	_, ok := s.book.Lookup("书生", hall.NameSanGuo, 1)
	s.Assert().False(ok)
}

func (s *SkillBookTestSuite) TestLookupReturnsCopy() {
	got, _ := s.book.Lookup("邪皇", hall.NameFengShen, 1)
	got.Support[0] = "changed"

	again, _ := s.book.Lookup("邪皇", hall.NameFengShen, 1)
	s.Assert().Equal("心眼式", again.Support[0])
}

func (s *SkillBookTestSuite) TestLoadFile() {
	path := filepath.Join(s.T().TempDir(), "skills.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(`
careers:
  书生:
    default: {primary: 笔走龙蛇0人, support: [墨香]}
    halls:
      绝代风华:
        3: {primary: 挥毫0天, support: []}
`), 0o600))

	book, err := skillbook.LoadFile(path)
	s.Require().NoError(err)

	got, ok := book.Lookup("书生", hall.NameJueDai, 3)
	s.Require().True(ok)
	s.Assert().Equal(&hall.SkillOverride{Primary: "挥毫0天"}, got)
}

func (s *SkillBookTestSuite) TestInvalidBooks() {
	testCases := []struct {
		name string
		yaml string
	}{
		{"no careers", "careers: {}"},
		{"missing default primary", "careers:\n  书生:\n    default: {support: [墨香]}"},
		{"unknown hall", "careers:\n  书生:\n    default: {primary: a}\n    halls:\n      不存在:\n        1: {primary: b}"},
		{"bad yaml", "careers: ["},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := skillbook.Load(strings.NewReader(tc.yaml))
			s.Require().Error(err)
			s.Assert().True(errors.IsInvalidArgument(err))
		})
	}
}
