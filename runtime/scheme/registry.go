package scheme

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// KnownTypesRegistry maps GroupKind to go types and back, so a decoded payload can be restored into the registered struct
type KnownTypesRegistry interface {
	AddKnownTypes(g Group, types ...Object)
	AddKnownTypeWithName(gk GroupKind, obj Object)
	NewObject(gk GroupKind) (Object, error)
	ObjectKind(obj Object) (*GroupKind, error)
}

func NewKnownTypesRegistry() KnownTypesRegistry {
	return &knownTypesRegistry{gkToType: map[GroupKind]reflect.Type{}, typeToGK: map[reflect.Type]GroupKind{}}
}

type knownTypesRegistry struct {
	mu       sync.RWMutex
	gkToType map[GroupKind]reflect.Type
	// keyed by the struct type, never by a pointer type
	typeToGK map[reflect.Type]GroupKind
}

func (r *knownTypesRegistry) AddKnownTypes(g Group, types ...Object) {
	for _, obj := range types {
		structType := GetStructType(obj)
		r.addKnownTypeWithName(GroupKind{Group: g, Kind: structType.Name()}, obj, structType)
	}
}

func (r *knownTypesRegistry) AddKnownTypeWithName(gk GroupKind, obj Object) {
	r.addKnownTypeWithName(gk, obj, GetStructType(obj))
}

func (r *knownTypesRegistry) NewObject(gk GroupKind) (Object, error) {
	r.mu.RLock()
	t, exists := r.gkToType[gk]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Errorf("type %s is not registered in KnownTypes", gk.String())
	}

	obj := reflect.New(t).Interface().(Object)
	obj.SetGroupKind(&gk)

	return obj, nil
}

func (r *knownTypesRegistry) ObjectKind(obj Object) (*GroupKind, error) {
	structType := GetStructType(obj)

	r.mu.RLock()
	gk, ok := r.typeToGK[structType]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Errorf("no kind is registered in scheme for the type %s", structType.Name())
	}

	return &gk, nil
}

func (r *knownTypesRegistry) addKnownTypeWithName(gk GroupKind, obj Object, structType reflect.Type) {
	if len(gk.Group) == 0 {
		panic(fmt.Sprintf("group is required on all types: %s %v", gk, reflect.PtrTo(structType)))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if oldT, found := r.gkToType[gk]; found && oldT != structType {
		panic(fmt.Sprintf("double registration of different types for %v: old=%v.%v, new=%v.%v", gk, oldT.PkgPath(), oldT.Name(), structType.PkgPath(), structType.Name()))
	}

	r.gkToType[gk] = structType
	r.typeToGK[structType] = gk
	obj.SetGroupKind(&gk)
}

// GetStructType returns the underlying struct type of obj. Panics if obj is not a struct or a pointer to one.
func GetStructType(obj interface{}) reflect.Type {
	structType := reflect.TypeOf(obj)

	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}

	if structType.Kind() != reflect.Struct {
		panic("all types must be pointers to structs")
	}

	return structType
}
