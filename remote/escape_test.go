package remote

import (
	"testing"

	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/gunit"
)

func TestEncodePathSegmentFixture(t *testing.T) {
	gunit.Run(new(EncodePathSegmentFixture), t)
}

type EncodePathSegmentFixture struct {
	*gunit.Fixture
}

func (this *EncodePathSegmentFixture) TestUnreservedCharactersUntouched() {
	this.So(EncodePathSegment("Tools-1.0_rc~2"), should.Equal, "Tools-1.0_rc~2")
}

func (this *EncodePathSegmentFixture) TestSlashAndColonEscaped() {
	this.So(EncodePathSegment("group/sub:project"), should.Equal, "group%2Fsub%3Aproject")
}

func (this *EncodePathSegmentFixture) TestEveryReservedCharacterEscaped() {
	this.So(EncodePathSegment(":/?#[]@!$&'()*+,;="), should.Equal,
		"%3A%2F%3F%23%5B%5D%40%21%24%26%27%28%29%2A%2B%2C%3B%3D")
}

func (this *EncodePathSegmentFixture) TestSpacesPercentAndMultibyte() {
	this.So(EncodePathSegment("a b%c"), should.Equal, "a%20b%25c")
	this.So(EncodePathSegment("é"), should.Equal, "%C3%A9")
}
